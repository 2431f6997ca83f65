package signals

import (
	"augur/pkg/errors"
)

// Label is the 3-class training target derived from the realized forward
// return of a bar
type Label int

const (
	LabelSell Label = -1
	LabelHold Label = 0
	LabelBuy  Label = 1
)

// String returns the human-readable class name
func (l Label) String() string {
	switch l {
	case LabelBuy:
		return "buy"
	case LabelSell:
		return "sell"
	}
	return "hold"
}

// LabeledRow is a feature row with its training label attached
type LabeledRow struct {
	FeatureRow
	Label Label
}

// ApplyLabels attaches a label to each row based on the return realized
// lookahead bars later: BUY above threshold, SELL below -threshold, HOLD
// otherwise. The boundary is exclusive, a return of exactly threshold is
// HOLD. The trailing lookahead rows have no known future and are dropped.
func ApplyLabels(rows []FeatureRow, lookahead int, threshold float64) ([]LabeledRow, error) {
	if lookahead <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "lookahead must be positive, got %d", lookahead)
	}
	if threshold < 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "threshold must be non-negative, got %f", threshold)
	}
	if len(rows) <= lookahead {
		return nil, errors.Wrapf(errors.ErrInsufficientHistory,
			"need more than %d rows to label with lookahead %d, got %d", lookahead, lookahead, len(rows))
	}

	labeled := make([]LabeledRow, 0, len(rows)-lookahead)
	for i := 0; i < len(rows)-lookahead; i++ {
		futureReturn := rows[i+lookahead].Bar.Close/rows[i].Bar.Close - 1

		label := LabelHold
		switch {
		case futureReturn > threshold:
			label = LabelBuy
		case futureReturn < -threshold:
			label = LabelSell
		}

		labeled = append(labeled, LabeledRow{FeatureRow: rows[i], Label: label})
	}

	return labeled, nil
}
