package postgres

import "time"

// PatternRecord is one confirmed detection persisted for history queries.
type PatternRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	Symbol  string    `gorm:"type:text;not null;index:idx_pattern_symbol;index:idx_symbol_pattern_date,unique"`
	Pattern string    `gorm:"type:varchar(40);not null;index:idx_symbol_pattern_date,unique"`
	Date    time.Time `gorm:"type:date;not null;index:idx_symbol_pattern_date,unique"`

	BarIndex int     `gorm:"not null"`
	Neckline float64 `gorm:"type:numeric;not null"`
	Close    float64 `gorm:"type:numeric;not null"`
	Volume   float64 `gorm:"type:numeric;not null"`

	VolumeConfirmed bool `gorm:"not null"`
	LevelConfirmed  bool `gorm:"not null"`

	RecordedAt time.Time `gorm:"autoCreateTime;index:idx_pattern_recorded_at"`
}

// TableName overrides the default table name for GORM.
func (PatternRecord) TableName() string {
	return "pattern_record"
}
