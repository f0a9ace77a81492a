// Package activity journals user actions and serves them back to their owner.
package activity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayush/app-store/backend/internal/auth"
	"github.com/ayush/app-store/backend/internal/httpx"
	"github.com/ayush/app-store/backend/internal/models"
)

// Journal defines the interface for activity persistence.
type Journal interface {
	Record(ctx context.Context, a *models.Activity) error
	ListByUser(ctx context.Context, userID int64) ([]models.Activity, error)
}

const (
	queueSize    = 256
	writeTimeout = 2 * time.Second
)

// Recorder queues journal entries and writes them on a background worker,
// so a slow or unreachable journal never holds up the request that
// produced the entry. A full queue drops the entry.
type Recorder struct {
	journal Journal
	log     logrus.FieldLogger
	timeout time.Duration

	queue     chan *models.Activity
	done      chan struct{}
	closeOnce sync.Once
}

func NewRecorder(journal Journal, log logrus.FieldLogger) *Recorder {
	r := &Recorder{
		journal: journal,
		log:     log,
		timeout: writeTimeout,
		queue:   make(chan *models.Activity, queueSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Record enqueues the entry without blocking. It must not be called after
// Close.
func (r *Recorder) Record(_ context.Context, userID int64, kind models.ActivityKind, subject string) {
	a := &models.Activity{UserID: userID, Kind: kind, Subject: subject, CreatedAt: time.Now().UTC()}
	select {
	case r.queue <- a:
	default:
		r.log.WithFields(logrus.Fields{
			"user_id": userID,
			"kind":    kind,
		}).Warn("activity queue full, entry dropped")
	}
}

// Close stops accepting entries and waits for the queued ones to be written.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() { close(r.queue) })
	<-r.done
}

func (r *Recorder) run() {
	defer close(r.done)
	for a := range r.queue {
		r.write(a)
	}
}

func (r *Recorder) write(a *models.Activity) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.journal.Record(ctx, a); err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"user_id": a.UserID,
			"kind":    a.Kind,
		}).Warn("activity not recorded")
	}
}

// Handler serves the caller's journal.
type Handler struct {
	journal Journal
	log     logrus.FieldLogger
}

func NewHandler(journal Journal, log logrus.FieldLogger) *Handler {
	return &Handler{journal: journal, log: log}
}

// List returns the caller's activity, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, auth.ErrMissingToken.Error())
		return
	}

	entries, err := h.journal.ListByUser(r.Context(), id.UserID)
	if err != nil {
		h.log.WithError(err).WithField("user_id", id.UserID).Error("list activity")
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}
	if entries == nil {
		entries = []models.Activity{}
	}
	httpx.WriteJSON(w, http.StatusOK, entries)
}
