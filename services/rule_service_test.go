package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilewise/scrabble-director/models"
	"github.com/tilewise/scrabble-director/repositories"
)

func rule(start, end int, method models.PairingMethod) *models.PairingRule {
	return &models.PairingRule{
		StartRound: start,
		EndRound:   end,
		Method:     method,
		Source:     models.SourcePreviousRound,
	}
}

func TestValidateRules(t *testing.T) {
	scheme := models.Scheme1v3_2v4
	badScheme := models.QuartileScheme("diagonal")

	cases := []struct {
		name    string
		rules   []*models.PairingRule
		rounds  int
		wantErr error
	}{
		{
			name: "valid multi-rule schedule",
			rules: []*models.PairingRule{
				rule(1, 3, models.MethodRoundRobin),
				rule(4, 7, models.MethodSwiss),
				rule(8, 8, models.MethodKOTH),
			},
			rounds: 8,
		},
		{
			name:   "empty set is valid",
			rules:  nil,
			rounds: 8,
		},
		{
			name: "overlapping ranges",
			rules: []*models.PairingRule{
				rule(1, 4, models.MethodSwiss),
				rule(4, 8, models.MethodKOTH),
			},
			rounds:  8,
			wantErr: ErrRuleRangesOverlap,
		},
		{
			name:    "inverted range",
			rules:   []*models.PairingRule{rule(5, 3, models.MethodSwiss)},
			rounds:  8,
			wantErr: ErrRuleRangeInvalid,
		},
		{
			name:    "zero start round",
			rules:   []*models.PairingRule{rule(0, 2, models.MethodSwiss)},
			rounds:  8,
			wantErr: ErrRuleRangeInvalid,
		},
		{
			name:    "range beyond total rounds",
			rules:   []*models.PairingRule{rule(1, 9, models.MethodSwiss)},
			rounds:  8,
			wantErr: ErrRuleRangeInvalid,
		},
		{
			name:    "unknown method",
			rules:   []*models.PairingRule{rule(1, 2, "ladder")},
			rounds:  8,
			wantErr: ErrValidationFailed,
		},
		{
			name: "unknown source",
			rules: []*models.PairingRule{{
				StartRound: 1, EndRound: 2,
				Method: models.MethodSwiss, Source: "crystal_ball",
			}},
			rounds:  8,
			wantErr: ErrValidationFailed,
		},
		{
			name: "bad quartile scheme",
			rules: []*models.PairingRule{{
				StartRound: 1, EndRound: 2,
				Method: models.MethodQuartile, Source: models.SourceRound0,
				QuartileScheme: &badScheme,
			}},
			rounds:  8,
			wantErr: ErrValidationFailed,
		},
		{
			name: "good quartile scheme",
			rules: []*models.PairingRule{{
				StartRound: 1, EndRound: 2,
				Method: models.MethodQuartile, Source: models.SourceRound0,
				QuartileScheme: &scheme,
			}},
			rounds: 8,
		},
		{
			name: "negative allowed repeats",
			rules: []*models.PairingRule{{
				StartRound: 1, EndRound: 2,
				Method: models.MethodSwiss, Source: models.SourcePreviousRound,
				AllowedRepeats: -1,
			}},
			rounds:  8,
			wantErr: ErrValidationFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRules(tc.rules, tc.rounds)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestReplaceRulesRequiresDirector(t *testing.T) {
	tournamentRepo := newFakeTournamentRepo()
	require.NoError(t, tournamentRepo.Create(context.Background(), &models.Tournament{
		Name:        "City Open",
		DirectorID:  1,
		TotalRounds: 8,
		Settings:    models.DefaultTournamentSettings(),
	}))

	svc := NewRuleService(nil, nil, tournamentRepo)

	_, err := svc.ReplaceRules(context.Background(), 99, 1, []*models.PairingRule{
		rule(1, 8, models.MethodSwiss),
	})
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

// stubRuleConn is a minimal database/sql driver recording the transaction
// boundaries and statements the rule replacement issues. It answers every
// exec, and every query with a single "id" row, until failAtInsert trips.
type stubRuleConn struct {
	execs        []string
	inserts      int
	failAtInsert int
	began        bool
	committed    bool
	rolledBack   bool
}

func (c *stubRuleConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (c *stubRuleConn) Close() error                        { return nil }
func (c *stubRuleConn) Begin() (driver.Tx, error)           { c.began = true; return c, nil }
func (c *stubRuleConn) Commit() error                       { c.committed = true; return nil }
func (c *stubRuleConn) Rollback() error                     { c.rolledBack = true; return nil }

func (c *stubRuleConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.execs = append(c.execs, query)
	return driver.RowsAffected(1), nil
}

func (c *stubRuleConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.inserts++
	if c.failAtInsert > 0 && c.inserts >= c.failAtInsert {
		return nil, errors.New("insert rejected")
	}
	return &stubIDRows{id: int64(c.inserts)}, nil
}

type stubIDRows struct {
	id   int64
	done bool
}

func (r *stubIDRows) Columns() []string { return []string{"id"} }
func (r *stubIDRows) Close() error      { return nil }
func (r *stubIDRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	dest[0] = r.id
	r.done = true
	return nil
}

type stubConnector struct{ conn *stubRuleConn }

func (c stubConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c stubConnector) Driver() driver.Driver                        { return stubRuleDriver{c.conn} }

type stubRuleDriver struct{ conn *stubRuleConn }

func (d stubRuleDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func ruleTxFixture(t *testing.T, conn *stubRuleConn) RuleService {
	t.Helper()
	tournamentRepo := newFakeTournamentRepo()
	require.NoError(t, tournamentRepo.Create(context.Background(), &models.Tournament{
		Name:        "City Open",
		DirectorID:  1,
		TotalRounds: 8,
		Settings:    models.DefaultTournamentSettings(),
	}))
	dbConn := sql.OpenDB(stubConnector{conn: conn})
	t.Cleanup(func() { _ = dbConn.Close() })
	return NewRuleService(dbConn, repositories.NewPostgresPairingRuleRepository(dbConn), tournamentRepo)
}

func TestReplaceRulesCommitsDeleteAndInsertsTogether(t *testing.T) {
	conn := &stubRuleConn{}
	svc := ruleTxFixture(t, conn)

	saved, err := svc.ReplaceRules(context.Background(), 1, 1, []*models.PairingRule{
		rule(1, 4, models.MethodSwiss),
		rule(5, 8, models.MethodKOTH),
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, 1, saved[0].ID)

	assert.True(t, conn.began)
	assert.True(t, conn.committed)
	assert.False(t, conn.rolledBack)
	require.NotEmpty(t, conn.execs)
	assert.Contains(t, strings.ToUpper(conn.execs[0]), "DELETE FROM PAIRING_RULES")
}

func TestReplaceRulesRollsBackOnInsertFailure(t *testing.T) {
	conn := &stubRuleConn{failAtInsert: 2}
	svc := ruleTxFixture(t, conn)

	_, err := svc.ReplaceRules(context.Background(), 1, 1, []*models.PairingRule{
		rule(1, 4, models.MethodSwiss),
		rule(5, 8, models.MethodKOTH),
	})
	require.Error(t, err)

	assert.True(t, conn.began)
	assert.True(t, conn.rolledBack, "the delete must not survive a failed insert")
	assert.False(t, conn.committed)
}
