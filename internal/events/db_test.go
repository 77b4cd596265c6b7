package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stateRow fills in the ID and state columns only.
type stateRow struct {
	state string
}

func (row stateRow) Scan(dest ...any) error {
	*dest[0].(*int) = 4
	*dest[1].(*string) = row.state
	return nil
}

func TestScanEventState(t *testing.T) {
	event := &Event{}
	require.NoError(t, ScanEvent(stateRow{state: "approved"}, event))
	assert.Equal(t, 4, event.ID)
	assert.Equal(t, StateApproved, event.State)

	err := ScanEvent(stateRow{state: "cancelled"}, &Event{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
