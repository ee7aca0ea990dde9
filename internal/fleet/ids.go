package fleet

import (
	"sync"
	"time"

	"github.com/rongwang/pioneer-fleet/internal/models"
)

// IDGenerator mints ship ids. Ids keep the historical microsecond-timestamp
// shape but are strictly increasing within a process and always above every
// id already present in the fleet, so a batch never collides with itself.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator creates a generator driven by the wall clock
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Next returns a fresh id for a record about to join fleet
func (g *IDGenerator) Next(fleet []models.ShipRecord) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMicro()
	if id <= g.last {
		id = g.last + 1
	}
	if max := maxID(fleet); id <= max {
		id = max + 1
	}
	g.last = id
	return id
}

func maxID(fleet []models.ShipRecord) int64 {
	var max int64
	for i := range fleet {
		if fleet[i].ID > max {
			max = fleet[i].ID
		}
	}
	return max
}
