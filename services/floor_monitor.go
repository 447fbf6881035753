package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/gamezone-pos/hub"
	"github.com/yeremiapane/gamezone-pos/utils"
)

// FloorEntry adalah satu sesi aktif di layar lantai.
type FloorEntry struct {
	SessionID     uint            `json:"session_id"`
	DeviceID      uint            `json:"device_id"`
	DeviceType    string          `json:"device_type"`
	CounterNumber int             `json:"counter_number"`
	TokenID       uint            `json:"token_id"`
	PlayerCount   int             `json:"player_count"`
	StartTime     time.Time       `json:"start_time"`
	Minutes       int             `json:"minutes"`
	LiveCost      decimal.Decimal `json:"live_cost"`
}

type FloorSnapshot struct {
	At       time.Time    `json:"at"`
	Sessions []FloorEntry `json:"sessions"`
	Running  string       `json:"running"`
}

// FloorMonitor pushes the running cost of every active session to the floor screens.
type FloorMonitor struct {
	Sessions *SessionService
	Hub      Broadcaster
	StopChan chan struct{}
	Interval time.Duration
}

func NewFloorMonitor(sessions *SessionService, b Broadcaster, interval time.Duration) *FloorMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &FloorMonitor{
		Sessions: sessions,
		Hub:      b,
		StopChan: make(chan struct{}),
		Interval: interval,
	}
}

func (fm *FloorMonitor) Start() {
	go func() {
		ticker := time.NewTicker(fm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				fm.broadcastSnapshot()
			case <-fm.StopChan:
				return
			}
		}
	}()
}

func (fm *FloorMonitor) Stop() {
	close(fm.StopChan)
}

// Snapshot builds the current floor view.
func (fm *FloorMonitor) Snapshot(ctx context.Context) (*FloorSnapshot, error) {
	active, err := fm.Sessions.Active(ctx)
	if err != nil {
		return nil, err
	}
	now := fm.Sessions.now()

	snapshot := &FloorSnapshot{At: now, Sessions: make([]FloorEntry, 0, len(active))}
	running := decimal.Zero
	for _, session := range active {
		cost, ok := liveCost(fm.Sessions.pricing, session, now)
		if !ok {
			continue
		}
		running = running.Add(cost)
		snapshot.Sessions = append(snapshot.Sessions, FloorEntry{
			SessionID:     session.ID,
			DeviceID:      session.DeviceID,
			DeviceType:    session.Device.Type,
			CounterNumber: session.Device.CounterNumber,
			TokenID:       session.TokenID,
			PlayerCount:   session.PlayerCount,
			StartTime:     session.StartTime,
			Minutes:       ElapsedMinutes(session.StartTime, now),
			LiveCost:      cost,
		})
	}
	snapshot.Running = utils.FormatRupee(running)
	return snapshot, nil
}

func (fm *FloorMonitor) broadcastSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), fm.Interval)
	defer cancel()

	snapshot, err := fm.Snapshot(ctx)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("failed to build floor snapshot")
		return
	}
	if fm.Hub != nil {
		fm.Hub.Broadcast(hub.EventFloorSnapshot, snapshot)
	}
}
