package main

import (
	"context"
	"encoding/json"

	"github.com/Alwanly/hospital-polling/pkg/logger"
	"github.com/Alwanly/hospital-polling/pkg/poll"
	"github.com/Alwanly/hospital-polling/pkg/pubsub"
)

// forwardHints triggers an immediate poll on every session of the hinted
// hospital. Hints are advisory; the regular schedule keeps running.
func forwardHints(ctx context.Context, msgs <-chan pubsub.Message, byHospital map[string][]*poll.Session, log *logger.CanonicalLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-msgs:
			if !ok {
				return
			}
			var hint pubsub.ChangeHint
			if err := json.Unmarshal([]byte(m.Payload), &hint); err != nil {
				log.Warn("ignoring malformed change hint", logger.String("payload", m.Payload))
				continue
			}
			sessions := byHospital[hint.HospitalID]
			for _, s := range sessions {
				s.PollNow()
			}
			log.WithHospitalID(hint.HospitalID).Debug("change hint received",
				logger.String(logger.FieldChangeKind, hint.Kind),
				logger.Int("sessions", len(sessions)),
			)
		}
	}
}
