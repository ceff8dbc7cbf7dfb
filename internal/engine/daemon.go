package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/zapfield/zapfield/internal/ai"
	"github.com/zapfield/zapfield/internal/catalog"
	"github.com/zapfield/zapfield/internal/config"
	"github.com/zapfield/zapfield/internal/dedup"
	"github.com/zapfield/zapfield/internal/session"
	"github.com/zapfield/zapfield/internal/tickets"
	"github.com/zapfield/zapfield/internal/transport"
	"gorm.io/gorm"
)

// Daemon is the main bot process. It connects to a chat platform via an
// Adapter, builds the conversation engine, and pumps inbound messages to it
// until the context is cancelled.
type Daemon struct {
	db      *gorm.DB
	cfg     *config.Config
	adapter transport.Adapter
	ai      ai.Client
	out     io.Writer
}

// DaemonOpts holds parameters for creating a new Daemon.
type DaemonOpts struct {
	DB      *gorm.DB
	Config  *config.Config
	Adapter transport.Adapter
	AI      ai.Client // optional; nil disables the AI path
	Out     io.Writer // defaults to os.Stdout
}

// NewDaemon creates a Daemon with the given options.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("engine: db is required")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("engine: config is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("engine: adapter is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.AI == nil {
		fmt.Fprintf(out, "engine: no AI client configured; free-text replies disabled\n")
	}
	return &Daemon{
		db:      opts.DB,
		cfg:     opts.Config,
		adapter: opts.Adapter,
		ai:      opts.AI,
		out:     out,
	}, nil
}

// Run starts the bot daemon. It connects the adapter, builds the engine and
// its subsystems, and blocks until the context is cancelled. On shutdown it
// stops the dedup sweeper and closes the adapter gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "%s connecting...\n", d.cfg.BotName)
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("engine: connect: %w", err)
	}

	store, err := catalog.NewStore(d.db)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("engine: build catalog store: %w", err)
	}

	ticketMgr, err := tickets.NewManager(tickets.ManagerOpts{DB: d.db})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("engine: build ticket manager: %w", err)
	}

	gate := dedup.NewGate(dedup.GateOpts{
		IDTTL:   d.cfg.Engine.DedupIDTTL(),
		TextTTL: d.cfg.Engine.DedupTextTTL(),
	})
	if err := gate.StartSweeping(d.cfg.Engine.DedupSweep()); err != nil {
		d.adapter.Close()
		return fmt.Errorf("engine: start dedup sweeper: %w", err)
	}
	defer gate.StopSweeping()

	eng, err := NewEngine(EngineOpts{
		DB:              d.db,
		Catalog:         store,
		Sessions:        session.NewMemoryStore(),
		Gate:            gate,
		Tickets:         ticketMgr,
		Adapter:         d.adapter,
		AI:              d.ai,
		BotName:         d.cfg.BotName,
		HistoryLimit:    d.cfg.Engine.HistoryLimit,
		WelcomeCooldown: d.cfg.Engine.WelcomeCooldown(),
		Out:             d.out,
	})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("engine: build engine: %w", err)
	}

	inbound, err := d.adapter.Listen(ctx)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("engine: listen: %w", err)
	}

	fmt.Fprintf(d.out, "%s online\n", d.cfg.BotName)

	// Main event loop: pump inbound messages until context is cancelled.
	// Handle runs each event to completion, which keeps per-channel
	// ordering without any extra locking.
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "%s shutting down...\n", d.cfg.BotName)
			if err := d.adapter.Close(); err != nil {
				log.Printf("engine: close adapter: %v", err)
			}
			fmt.Fprintf(d.out, "%s stopped\n", d.cfg.BotName)
			return nil

		case msg, ok := <-inbound:
			if !ok {
				fmt.Fprintf(d.out, "engine: inbound channel closed\n")
				return nil
			}
			eng.Handle(ctx, msg)
		}
	}
}
