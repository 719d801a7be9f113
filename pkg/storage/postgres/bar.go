package postgres

import (
	"context"
	"fmt"
	"time"

	"barreplay/internal/feed"

	"gorm.io/gorm/clause"
)

func (p *PostgresClient) InsertBar(ctx context.Context, record *BarRecord) error {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "symbol"},
			{Name: "ts_event"},
			{Name: "run_id"},
		},
		DoNothing: true,
	}).Create(record)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return fmt.Errorf(
			"duplicate bar skipped: symbol=%s ts_event=%d run_id=%s",
			record.Symbol,
			record.TsEvent,
			record.RunID,
		)
	}

	return nil
}

func (p *PostgresClient) GetBar(ctx context.Context, symbol string, tsEvent int64, runID string) (*BarRecord, error) {
	var bar BarRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ? AND ts_event = ? AND run_id = ?", symbol, tsEvent, runID).
		First(&bar).Error

	if err != nil {
		return nil, err
	}
	return &bar, nil
}

func (p *PostgresClient) GetBarsBySymbol(ctx context.Context, symbol, runID string) ([]BarRecord, error) {
	var bars []BarRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ? AND run_id = ?", symbol, runID).
		Order("ts_event ASC").
		Find(&bars).Error

	if err != nil {
		return nil, err
	}
	return bars, nil
}

func (p *PostgresClient) DeleteBarsBefore(ctx context.Context, before time.Time) error {
	return p.DB.WithContext(ctx).
		Where("event_time < ?", before).
		Delete(&BarRecord{}).Error
}

// ToBarRecord converts a validated feed bar into a BarRecord for DB insertion.
func ToBarRecord(b feed.Bar, runID string) *BarRecord {
	return &BarRecord{
		Symbol:    b.Symbol,
		TsEvent:   int64(b.TsEvent),
		RunID:     runID,
		EventTime: b.Time(),
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    int64(b.Volume),
	}
}
