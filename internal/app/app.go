// Package app ties the pose classifier to exercise sessions, persistence and
// plugin hooks.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/asana/internal/classification"
	"github.com/ayusman/asana/internal/config"
	"github.com/ayusman/asana/internal/plugin"
	"github.com/ayusman/asana/internal/pose"
	"github.com/ayusman/asana/internal/store"
)

var (
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoClassifier is returned when frames arrive before reference samples are loaded.
	ErrNoClassifier = errors.New("no reference samples loaded")
	// ErrNoSamples is returned when an import holds no valid record.
	ErrNoSamples = errors.New("no valid samples")
)

// Config holds configuration options for the application.
type Config struct {
	// Store is optional; without it sessions live in memory only.
	Store    *store.Store
	Settings config.Config
}

// App is the main application that owns the shared classifier and the
// active sessions.
type App struct {
	config     Config
	classifier *classification.Classifier
	sessions   map[string]*Session
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	mu         sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	hooks  sync.WaitGroup
	stopCh chan struct{}
	now    func() time.Time

	listeners []RepListener
}

// RepListener is called after a stream session completes a repetition.
type RepListener func(sessionID string, ev classification.RepEvent)

// New creates a new App instance with the given configuration.
func New(cfg Config) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		config:     cfg,
		sessions:   make(map[string]*Session),
		pluginMgr:  plugin.NewManager(cfg.Settings.PluginDir),
		pluginExec: plugin.NewExecutor(cfg.Settings.PluginTimeoutMs),
		ctx:        ctx,
		cancel:     cancel,
		now:        time.Now,
	}
}

// ImportSamples reads a reference file, replaces the stored reference set
// with its valid records and rebuilds the classifier. Malformed lines are
// logged and skipped.
func (a *App) ImportSamples(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open samples: %w", err)
	}
	defer f.Close()

	return a.ImportSamplesFrom(f, path)
}

// ImportSamplesFrom is ImportSamples for an already opened source. name is
// only used in log messages.
func (a *App) ImportSamplesFrom(r io.Reader, name string) (int, error) {
	samples, skipped, err := classification.LoadSamples(r, a.config.Settings.Delimiter)
	if err != nil {
		return 0, err
	}
	for _, s := range skipped {
		log.Printf("Skipping %s:%d: %v", name, s.Line, s.Err)
	}
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}

	if a.config.Store != nil {
		if err := a.config.Store.Samples().ReplaceAll(samples); err != nil {
			return 0, fmt.Errorf("store samples: %w", err)
		}
	}

	a.UseSamples(samples)
	log.Printf("Imported %d samples from %s (%d skipped)", len(samples), name, len(skipped))
	return len(samples), nil
}

// LoadClassifier builds the classifier from the samples in the store.
func (a *App) LoadClassifier() error {
	if a.config.Store == nil {
		return nil
	}

	samples, err := a.config.Store.Samples().List()
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		log.Println("No reference samples in database")
		return nil
	}

	a.UseSamples(samples)
	return nil
}

// UseSamples replaces the classifier with one built from samples. Open
// sessions keep the classifier they started with.
func (a *App) UseSamples(samples []classification.PoseSample) {
	c := classification.NewClassifier(samples, a.classifierOptions()...)
	if c.Dropped() > 0 {
		log.Printf("Dropped %d samples with incomplete or non-finite landmarks", c.Dropped())
	}

	a.mu.Lock()
	a.classifier = c
	a.mu.Unlock()

	log.Printf("Loaded classifier with %d samples in %d classes", c.Len(), len(c.Classes()))
}

// Classifier returns the current classifier, or nil before samples are loaded.
func (a *App) Classifier() *classification.Classifier {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.classifier
}

// Classify runs a stateless one-shot classification of a single pose.
func (a *App) Classify(set pose.LandmarkSet) (classification.FrameResult, error) {
	c := a.Classifier()
	if c == nil {
		return classification.FrameResult{}, ErrNoClassifier
	}
	p := classification.NewProcessor(c, false, classification.WithOverlay(a.overlay()))
	return p.Process(set), nil
}

// OpenSession starts a new session. Stream sessions smooth results over time
// and count repetitions.
func (a *App) OpenSession(stream bool) (SessionInfo, error) {
	c := a.Classifier()
	if c == nil {
		return SessionInfo{}, ErrNoClassifier
	}

	procOpts, err := a.processorOptions()
	if err != nil {
		return SessionInfo{}, err
	}

	s := &Session{
		ID:        uuid.NewString(),
		Stream:    stream,
		CreatedAt: a.now(),
	}
	s.processor = classification.NewProcessor(c, stream, append(procOpts,
		classification.WithOnRep(func(ev classification.RepEvent) {
			log.Printf("Session %s: %s : %d reps", s.ID, ev.Class, ev.Reps)
		}))...)
	s.lastActivity = s.CreatedAt

	if a.config.Store != nil {
		rec := &store.Session{ID: s.ID, Stream: stream, CreatedAt: s.CreatedAt}
		if err := a.config.Store.Sessions().Create(rec); err != nil {
			return SessionInfo{}, fmt.Errorf("persist session: %w", err)
		}
	}

	a.mu.Lock()
	a.sessions[s.ID] = s
	a.mu.Unlock()

	log.Printf("Opened session %s (stream=%v)", s.ID, stream)
	return s.Info(), nil
}

// ProcessFrame feeds one frame to a session. Frames of one session are
// processed in arrival order; different sessions run in parallel.
func (a *App) ProcessFrame(id string, set pose.LandmarkSet) (classification.FrameResult, error) {
	s, ok := a.session(id)
	if !ok {
		return classification.FrameResult{}, ErrSessionNotFound
	}

	// Hooks are queued under the session lock so they keep frame order.
	res, err := s.process(set, a.now(), func(res classification.FrameResult) {
		for _, ev := range res.Events {
			a.notify(s, plugin.Request{
				Event:   plugin.EventRep,
				Session: id,
				Class:   ev.Class,
				Reps:    ev.Reps,
				Label:   res.Label,
			})
		}
	})
	if err != nil {
		return classification.FrameResult{}, err
	}

	if len(res.Events) > 0 {
		a.persistCounts(id, res.Counts)

		a.mu.RLock()
		listeners := a.listeners
		a.mu.RUnlock()

		for _, ev := range res.Events {
			for _, fn := range listeners {
				fn(id, ev)
			}
		}
	}

	return res, nil
}

// Session returns the state of an open session, or the stored record of a
// closed one.
func (a *App) Session(id string) (SessionInfo, error) {
	if s, ok := a.session(id); ok {
		return s.Info(), nil
	}
	if a.config.Store == nil {
		return SessionInfo{}, ErrSessionNotFound
	}

	rec, err := a.config.Store.Sessions().GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		return SessionInfo{}, ErrSessionNotFound
	}
	if err != nil {
		return SessionInfo{}, err
	}
	counts, err := a.config.Store.Sessions().GetReps(id)
	if err != nil {
		return SessionInfo{}, err
	}

	return SessionInfo{
		ID:        rec.ID,
		Stream:    rec.Stream,
		CreatedAt: rec.CreatedAt,
		ClosedAt:  rec.ClosedAt,
		Counts:    counts,
	}, nil
}

// Sessions returns the open sessions, oldest first.
func (a *App) Sessions() []SessionInfo {
	a.mu.RLock()
	list := make([]*Session, 0, len(a.sessions))
	for _, s := range a.sessions {
		list = append(list, s)
	}
	a.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(list))
	for _, s := range list {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.Before(infos[j].CreatedAt)
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// CloseSession ends a session, stores its final counts and notifies plugins.
func (a *App) CloseSession(id string) (SessionInfo, error) {
	a.mu.Lock()
	s, ok := a.sessions[id]
	delete(a.sessions, id)
	a.mu.Unlock()
	if !ok {
		return SessionInfo{}, ErrSessionNotFound
	}

	closedAt := a.now()
	info := s.close(closedAt)

	if a.config.Store != nil {
		if info.Stream {
			a.persistCounts(id, info.Counts)
		}
		if err := a.config.Store.Sessions().Close(id, closedAt); err != nil {
			log.Printf("Failed to mark session %s closed: %v", id, err)
		}
	}

	a.notify(s, plugin.Request{
		Event:   plugin.EventSessionClosed,
		Session: id,
		Counts:  info.Counts,
	})

	log.Printf("Closed session %s after %d frames", id, info.Frames)
	return info, nil
}

// OnRep registers fn to be called for every completed repetition. fn runs on
// the goroutine processing the frame and must not block.
func (a *App) OnRep(fn RepListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	if err := a.pluginMgr.Discover(); err != nil {
		return err
	}
	for _, p := range a.pluginMgr.List() {
		log.Printf("Loaded plugin %s %s (events: %v)", p.Manifest.Name, p.Manifest.Version, p.Manifest.Events)
	}
	return nil
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Close stops the reaper, waits for running plugin hooks and closes every
// open session.
func (a *App) Close() {
	a.StopReaper()

	a.mu.RLock()
	ids := make([]string, 0, len(a.sessions))
	for id := range a.sessions {
		ids = append(ids, id)
	}
	a.mu.RUnlock()

	for _, id := range ids {
		a.CloseSession(id)
	}

	a.hooks.Wait()
	a.cancel()
}

func (a *App) session(id string) (*Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.sessions[id]
	return s, ok
}

func (a *App) persistCounts(id string, counts map[string]int) {
	if a.config.Store == nil || len(counts) == 0 {
		return
	}
	if err := a.config.Store.Sessions().SaveReps(id, counts); err != nil {
		log.Printf("Failed to save reps for session %s: %v", id, err)
	}
}

// notify queues plugin hooks on the session's hook queue. They run in the
// background, one event at a time.
func (a *App) notify(s *Session, req plugin.Request) {
	if len(a.pluginMgr.Subscribers(req.Event)) == 0 {
		return
	}
	s.hooks.push(func() {
		a.pluginExec.Notify(a.ctx, a.pluginMgr, req)
	}, &a.hooks)
}

func (a *App) classifierOptions() []classification.Option {
	cc := a.config.Settings.Classifier
	opts := []classification.Option{
		classification.WithK(cc.K),
		classification.WithMaxDistanceTopK(cc.MaxDistanceTopK),
	}
	if len(cc.AxesWeights) == 3 {
		opts = append(opts, classification.WithAxesWeights(r3.Vec{
			X: cc.AxesWeights[0],
			Y: cc.AxesWeights[1],
			Z: cc.AxesWeights[2],
		}))
	}
	return opts
}

func (a *App) overlay() *classification.Overlay {
	names := classification.DefaultDisplayNames()
	for k, v := range a.config.Settings.Display {
		names[k] = v
	}
	return classification.NewOverlay(classification.DefaultRules(), names)
}

func (a *App) processorOptions() ([]classification.ProcessorOption, error) {
	sc := a.config.Settings.Smoothing
	smoothing := classification.NewEMASmoothing(
		classification.WithWindowSize(sc.Window),
		classification.WithAlpha(sc.Alpha),
		classification.WithResetAfter(sc.ResetAfter),
		classification.WithClock(func() time.Time { return a.now() }),
	)

	opts := []classification.ProcessorOption{
		classification.WithSmoothing(smoothing),
		classification.WithOverlay(a.overlay()),
	}

	if len(a.config.Settings.Counters) > 0 {
		counters := make([]*classification.RepetitionCounter, 0, len(a.config.Settings.Counters))
		for _, cc := range a.config.Settings.Counters {
			c, err := classification.NewRepetitionCounter(cc.Class, cc.Enter, cc.Exit)
			if err != nil {
				return nil, fmt.Errorf("counter %q: %w", cc.Class, err)
			}
			counters = append(counters, c)
		}
		opts = append(opts, classification.WithCounters(counters...))
	}

	return opts, nil
}
