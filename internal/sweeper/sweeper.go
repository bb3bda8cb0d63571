package sweeper

import (
	"context"
	"fmt"
	"log"
	"time"

	"stayhub/internal/domain"

	"github.com/robfig/cron/v3"
)

type BookingRepository interface {
	FindExpiredPending(ctx context.Context, now time.Time) ([]domain.Booking, error)
	CancelIfPendingUnpaid(ctx context.Context, bookingID int64) (bool, error)
}

type RoomRepository interface {
	UpdateStatus(ctx context.Context, roomID int64, status domain.RoomStatus) error
}

// Sweeper periodically cancels pending bookings whose payment window has
// lapsed and releases their rooms. It only ever touches pending/unpaid
// rows: the conditional update it shares with the callback path decides
// the race, so a booking that gets paid while a sweep is running is left
// alone.
type Sweeper struct {
	bookings BookingRepository
	rooms    RoomRepository
	interval time.Duration
	cron     *cron.Cron
	now      func() time.Time
}

func New(bookings BookingRepository, rooms RoomRepository, interval time.Duration) *Sweeper {
	return &Sweeper{
		bookings: bookings,
		rooms:    rooms,
		interval: interval,
		now:      time.Now,
	}
}

func (s *Sweeper) Start() {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.SweepOnce(context.Background())
	})
	if err != nil {
		log.Printf("level=error msg=failed to schedule sweeper err=%v", err)
		return
	}
	s.cron.Start()
	log.Printf("level=info msg=expiration sweeper started interval=%s", s.interval)
}

// Stop halts scheduling and waits for an in-flight sweep to finish, so
// shutdown happens between sweeps rather than mid-batch.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	log.Println("level=info msg=expiration sweeper stopped")
}

// SweepOnce cancels every expired pending/unpaid booking it can find.
// Failures are isolated per booking: one bad row is logged and the rest
// of the batch continues. Returns the number of bookings canceled.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	expired, err := s.bookings.FindExpiredPending(ctx, s.now())
	if err != nil {
		log.Printf("level=error msg=sweeper query failed err=%v", err)
		return 0
	}
	if len(expired) == 0 {
		return 0
	}

	canceled := 0
	for _, b := range expired {
		changed, err := s.bookings.CancelIfPendingUnpaid(ctx, b.ID)
		if err != nil {
			log.Printf("level=error msg=sweeper cancel failed booking_id=%d err=%v", b.ID, err)
			continue
		}
		if !changed {
			// A payment callback confirmed (or another cancel closed) the
			// booking between the select and the update.
			continue
		}
		canceled++

		if err := s.rooms.UpdateStatus(ctx, b.RoomID, domain.RoomAvailable); err != nil {
			log.Printf("level=error msg=sweeper failed to release room room_id=%d err=%v", b.RoomID, err)
		}
	}

	if canceled > 0 {
		log.Printf("level=info msg=sweeper canceled expired bookings count=%d", canceled)
	}
	return canceled
}
