package postgres

import "time"

// BarRecord represents a replayed OHLCV bar stored in the database.
// Prices keep the feed's fixed-point integer encoding (scale 1e9).
type BarRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	Symbol  string `gorm:"type:text;not null;index:idx_bar_symbol;index:idx_symbol_ts_event_run,unique"`
	TsEvent int64  `gorm:"not null;index:idx_symbol_ts_event_run,unique"` // nanoseconds since epoch
	RunID   string `gorm:"type:varchar(36);not null;index:idx_symbol_ts_event_run,unique"`

	EventTime time.Time `gorm:"not null;index:idx_bar_event_time"`

	Open  int64 `gorm:"not null"`
	High  int64 `gorm:"not null"`
	Low   int64 `gorm:"not null"`
	Close int64 `gorm:"not null"`

	Volume int64 `gorm:"not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (BarRecord) TableName() string {
	return "bar_record"
}
