package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"patternscope/internal/market"
	"patternscope/internal/pattern"

	"gorm.io/gorm/clause"
)

// ErrDuplicate is returned when a detection for the same symbol, pattern and date already exists.
var ErrDuplicate = errors.New("duplicate pattern record")

func (p *PostgresClient) InsertPattern(ctx context.Context, record *PatternRecord) error {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "symbol"},
			{Name: "pattern"},
			{Name: "date"},
		},
		DoNothing: true,
	}).Create(record)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: symbol=%s pattern=%s date=%s",
			ErrDuplicate, record.Symbol, record.Pattern, record.Date.Format(time.DateOnly))
	}

	return nil
}

// SaveDetections converts and inserts every detection, skipping duplicates.
// It returns how many rows were newly written.
func (p *PostgresClient) SaveDetections(ctx context.Context, s market.Series, detections []pattern.Detection) (int, error) {
	written := 0
	for _, d := range detections {
		record, err := ToPatternRecord(s, d)
		if err != nil {
			return written, err
		}
		if err := p.InsertPattern(ctx, record); err != nil {
			if errors.Is(err, ErrDuplicate) {
				continue
			}
			return written, fmt.Errorf("insert %s: %w", d.Label(), err)
		}
		written++
	}
	return written, nil
}

// ListPatterns returns stored detections for symbol on or after since, newest first.
// An empty symbol lists every symbol.
func (p *PostgresClient) ListPatterns(ctx context.Context, symbol string, since time.Time, limit int) ([]PatternRecord, error) {
	q := p.DB.WithContext(ctx).Where("date >= ?", since)
	if symbol != "" {
		q = q.Where("symbol = ?", strings.ToUpper(symbol))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []PatternRecord
	if err := q.Order("date DESC").Order("symbol").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PostgresClient) DeleteOldPatterns(ctx context.Context, before time.Time) (int64, error) {
	tx := p.DB.WithContext(ctx).
		Where("date < ?", before).
		Delete(&PatternRecord{})
	return tx.RowsAffected, tx.Error
}

// ToPatternRecord converts a detection on s into a PatternRecord for DB insertion.
func ToPatternRecord(s market.Series, d pattern.Detection) (*PatternRecord, error) {
	if d.Index < 0 || d.Index >= s.Len() {
		return nil, fmt.Errorf("detection index %d outside series of %d bars", d.Index, s.Len())
	}
	bar := s.Bars[d.Index]

	return &PatternRecord{
		Symbol:          s.Symbol,
		Pattern:         string(d.Kind),
		Date:            bar.Date,
		BarIndex:        d.Index,
		Neckline:        d.Neckline,
		Close:           bar.Close,
		Volume:          bar.Volume,
		VolumeConfirmed: d.VolumeConfirmed,
		LevelConfirmed:  d.LevelConfirmed,
	}, nil
}
