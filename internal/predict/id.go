package predict

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// idNamespace seeds the deterministic prediction IDs. Never change it:
// stored forecasts key on the IDs it produces.
var idNamespace = uuid.MustParse("7d5c2f5e-9b1a-4d7c-8f3e-2a6b4c8d0e1f")

// PredictionID is deterministic within an hour bucket: repeated
// evaluations of the same symbol/timeframe inside the same hour yield
// the same ID, making re-runs idempotent.
func PredictionID(symbol, timeframe string, at time.Time) string {
	at = at.UTC()
	key := fmt.Sprintf("%s|%s|%s|%02d", symbol, timeframe, at.Format("2006-01-02"), at.Hour())
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}
