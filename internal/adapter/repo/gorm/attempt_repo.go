package gormrepo

import (
	"context"

	"pickit/internal/adapter/repo/gorm/model"
	"pickit/internal/app/ports"
	"pickit/internal/domain/loot"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttemptRepo journals finished pickup attempts. When Retain is positive
// older rows beyond that count are pruned in the same transaction.
type AttemptRepo struct {
	db     *gorm.DB
	tx     TxManager
	Retain int
}

var _ ports.AttemptJournal = AttemptRepo{}

func NewAttemptRepo(db *gorm.DB) AttemptRepo {
	return AttemptRepo{db: db, tx: NewTxManager(db), Retain: 10000}
}

func (r AttemptRepo) Append(ctx context.Context, record ports.AttemptRecord) error {
	m := toModel(record)
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		db := getDBFromCtx(ctx, r.db)
		if err := db.Create(&m).Error; err != nil {
			return err
		}
		if r.Retain <= 0 {
			return nil
		}
		return db.Exec(
			`DELETE FROM attempt_records WHERE id <= (SELECT id FROM attempt_records ORDER BY id DESC OFFSET ? LIMIT 1)`,
			r.Retain,
		).Error
	})
}

func (r AttemptRepo) Recent(ctx context.Context, limit int) ([]ports.AttemptRecord, error) {
	rows := []model.AttemptRecord{}
	query := getDBFromCtx(ctx, r.db).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "id"}, Desc: true}},
		})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ports.AttemptRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

// CountByOutcome groups the journal by outcome.
func (r AttemptRepo) CountByOutcome(ctx context.Context) (map[ports.Outcome]int64, error) {
	type row struct {
		Outcome string
		N       int64
	}
	var rows []row
	err := getDBFromCtx(ctx, r.db).
		Model(&model.AttemptRecord{}).
		Select("outcome, count(*) AS n").
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ports.ErrNotFound
	}
	out := make(map[ports.Outcome]int64, len(rows))
	for _, r := range rows {
		out[ports.Outcome(r.Outcome)] = r.N
	}
	return out, nil
}

func toModel(r ports.AttemptRecord) model.AttemptRecord {
	return model.AttemptRecord{
		Handle:    int64(r.Handle),
		Path:      r.Path,
		BaseName:  r.BaseName,
		Category:  string(r.Category),
		Distance:  r.Distance,
		Tries:     int32(r.Tries),
		Outcome:   string(r.Outcome),
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
	}
}

func fromModel(m model.AttemptRecord) ports.AttemptRecord {
	return ports.AttemptRecord{
		Handle:    loot.Handle(m.Handle),
		Path:      m.Path,
		BaseName:  m.BaseName,
		Category:  loot.Category(m.Category),
		Distance:  m.Distance,
		Tries:     int(m.Tries),
		Outcome:   ports.Outcome(m.Outcome),
		StartedAt: m.StartedAt,
		EndedAt:   m.EndedAt,
	}
}
