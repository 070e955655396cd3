package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"studycal/internal/calendar"
	"studycal/internal/config"
	"studycal/internal/ics"
	"studycal/internal/log"
	"studycal/internal/model"
	"studycal/internal/source"
)

const (
	defaultDataDir = "/var/lib/studycal"
	debugDataDir   = "./cache"

	// dataCacheTTL bounds how stale /api responses may be between
	// cron-driven refreshes.
	dataCacheTTL = 30 * time.Second
)

// Server provides the HTTP API and embedded UI for the calendar.
type Server struct {
	cfg   *config.Config
	debug bool
	mux   *http.ServeMux

	loc        *time.Location
	rest       *source.Client
	fetcher    *source.Fetcher
	classifier *ics.Classifier

	// In-memory cache of normalized events/tasks so every /api request
	// does not re-fetch the remote sources.
	dataMu sync.RWMutex
	data   *dataCache
}

type dataCache struct {
	events    []model.Event
	tasks     []model.Task
	updatedAt time.Time
}

// embeddedStatic contains the exported single-page UI build.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, debug bool) *Server {
	loc := resolveLocationOrLocal(cfg.Timezone)
	dataDir := defaultDataDir
	if debug {
		dataDir = debugDataDir
	}

	s := &Server{
		cfg:        cfg,
		debug:      debug,
		mux:        http.NewServeMux(),
		loc:        loc,
		rest:       source.NewClient(dataDir+"/source-cache", loc),
		fetcher:    source.NewFetcher(dataDir + "/source-cache"),
		classifier: ics.NewClassifier(cfg.CategoryKeywords),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		log.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Location returns the display timezone.
func (s *Server) Location() *time.Location {
	return s.loc
}

// SnapshotPath is where the capture pipeline writes the rendered
// calendar PNG, and where /preview.png serves it from.
func (s *Server) SnapshotPath() string {
	if s.debug {
		return debugDataDir + "/preview.png"
	}
	return defaultDataDir + "/preview.png"
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays unauthenticated for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="studycal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/grid/month", s.handleMonthGrid)
	s.mux.HandleFunc("/api/grid/week", s.handleWeekGrid)
	s.mux.HandleFunc("/api/slots/week", s.handleWeekSlots)
	s.mux.HandleFunc("/api/groups", s.handleGroups)
	s.mux.HandleFunc("/preview.png", s.handlePreview)

	// Embedded single-page UI. All non-API paths fall back to this.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// staticFileServer serves the embedded UI files from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		log.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Never serve HTML for /api/* misses; a JSON 404 is correct there.
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// handlePreview serves the last captured PNG snapshot from disk.
// http.ServeFile maps missing files and permission errors to sensible
// status codes on its own.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.SnapshotPath())
}

// cellDTO is the JSON view of a grid cell.
type cellDTO struct {
	Date     string `json:"date"`
	InPeriod bool   `json:"in_period"`
	Today    bool   `json:"today"`
}

func cellDTOs(cells []calendar.Cell) []cellDTO {
	out := make([]cellDTO, 0, len(cells))
	for _, c := range cells {
		out = append(out, cellDTO{
			Date:     model.DateKey(c.Date),
			InPeriod: c.InPeriod,
			Today:    c.Today,
		})
	}
	return out
}

// handleMonthGrid returns the 42-cell month grid.
//
// GET /api/grid/month?year=2025&month=2
//   - month is zero-based (0 = January), matching the view state the UI
//     navigates with. Defaults to the current month.
func (s *Server) handleMonthGrid(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(s.loc)
	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), now.Year())
	month := parseIntDefault(q.Get("month"), int(now.Month())-1)
	if month < 0 || month > 11 {
		writeError(w, http.StatusBadRequest, "month must be in 0..11")
		return
	}

	cells := calendar.MonthGrid(year, month, now)
	writeJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": month,
		"cells": cellDTOs(cells),
	})
}

// handleWeekGrid returns the 7-cell week grid.
//
// GET /api/grid/week?start=2025-03-02&month=2
//   - start defaults to the Sunday of the current week. Non-Sunday
//     starts are normalized back to Sunday.
//   - month (zero-based) picks the reference month for the in_period
//     flag; defaults to the month of start.
func (s *Server) handleWeekGrid(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(s.loc)
	start, err := parseWeekStart(r.URL.Query().Get("start"), now, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}

	refMonth := start.Month()
	if mq := r.URL.Query().Get("month"); mq != "" {
		m := parseIntDefault(mq, int(refMonth)-1)
		if m < 0 || m > 11 {
			writeError(w, http.StatusBadRequest, "month must be in 0..11")
			return
		}
		refMonth = time.Month(m + 1)
	}

	cells := calendar.WeekGrid(start, refMonth, now)
	writeJSON(w, http.StatusOK, map[string]any{
		"start": model.DateKey(cells[0].Date),
		"cells": cellDTOs(cells),
	})
}

// eventDTO is the JSON view of a normalized event.
type eventDTO struct {
	ID        string `json:"id"`
	SourceID  string `json:"source_id"`
	Title     string `json:"title"`
	Course    string `json:"course,omitempty"`
	Location  string `json:"location,omitempty"`
	Category  string `json:"category"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	AllDay    bool   `json:"all_day"`
}

func eventDTOs(events []model.Event) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, eventDTO{
			ID:        ev.ID,
			SourceID:  ev.SourceID,
			Title:     ev.Title,
			Course:    ev.Course,
			Location:  ev.Location,
			Category:  string(ev.Category),
			Date:      model.DateKey(ev.Date),
			StartTime: ev.StartTime,
			EndTime:   ev.EndTime,
			AllDay:    ev.AllDay,
		})
	}
	return out
}

// handleEvents returns all normalized events within the configured
// horizon, optionally filtered to a single day.
//
// GET /api/events?date=2025-03-01
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	data, err := s.loadData(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load sources")
		return
	}

	events := data.events
	if dq := r.URL.Query().Get("date"); dq != "" {
		day, perr := time.ParseInLocation("2006-01-02", dq, s.loc)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		events = calendar.EventsOnDay(events, day)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events":   eventDTOs(events),
		"timezone": s.loc.String(),
	})
}

// slotDTO is one occupied (weekday, hour) slot of the week view.
type slotDTO struct {
	Weekday int        `json:"weekday"`
	Hour    int        `json:"hour"`
	Events  []eventDTO `json:"events"`
}

// handleWeekSlots returns the week-view slot map for the week
// containing start, clipped to the visible hour range.
//
// GET /api/slots/week?start=2025-03-02&from=8&to=16
func (s *Server) handleWeekSlots(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(s.loc)
	q := r.URL.Query()

	start, err := parseWeekStart(q.Get("start"), now, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}

	hr := calendar.HourRange{
		Start: parseIntDefault(q.Get("from"), s.cfg.HourStart),
		End:   parseIntDefault(q.Get("to"), s.cfg.HourEnd),
	}
	if hr.Start < 0 || hr.End > 24 || hr.End <= hr.Start {
		writeError(w, http.StatusBadRequest, "hour range must satisfy 0 <= from < to <= 24")
		return
	}

	data, err := s.loadData(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load sources")
		return
	}

	week := calendar.WeekGrid(start, start.Month(), now)
	slotted := calendar.WeekSlots(data.events, week, hr)

	// Emit slots in deterministic weekday/hour order.
	slots := make([]slotDTO, 0, len(slotted.Slots))
	for wd := 0; wd < calendar.DaysPerWeek; wd++ {
		for h := hr.Start; h < hr.End; h++ {
			evs, ok := slotted.Slots[calendar.SlotKey{Weekday: wd, Hour: h}]
			if !ok {
				continue
			}
			slots = append(slots, slotDTO{Weekday: wd, Hour: h, Events: eventDTOs(evs)})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"start":      model.DateKey(week[0].Date),
		"hour_start": hr.Start,
		"hour_end":   hr.End,
		"slots":      slots,
		"overflow":   slotted.Overflow,
	})
}

// taskDTO is the JSON view of a normalized task.
type taskDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Course    string `json:"course,omitempty"`
	Category  string `json:"category"`
	Completed bool   `json:"completed"`
	Due       string `json:"due"`
}

// groupDTO is one paginated date group of tasks.
type groupDTO struct {
	Date      string    `json:"date"`
	Total     int       `json:"total"`
	PageIndex int       `json:"page_index"`
	PageCount int       `json:"page_count"`
	Tasks     []taskDTO `json:"tasks"`
}

// handleGroups returns tasks grouped by due date with per-group
// pagination applied.
//
// GET /api/groups?width=1024&page=0
//   - width:     viewport width in pixels; selects the page size via
//     the standard breakpoints
//   - page_size: explicit page size, overriding width
//   - page:      requested page index, clamped per group
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageSize := calendar.PageSizeForWidth(parseIntDefault(q.Get("width"), 1200))
	if ps := q.Get("page_size"); ps != "" {
		pageSize = parseIntDefault(ps, pageSize)
	}
	pageIndex := parseIntDefault(q.Get("page"), 0)

	data, err := s.loadData(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load sources")
		return
	}

	grouped := calendar.GroupByDate(data.tasks)

	groups := make([]groupDTO, 0, len(grouped.Groups))
	for _, g := range grouped.Groups {
		page := calendar.Paginate(g, pageSize, pageIndex)

		tasks := make([]taskDTO, 0, len(page.Tasks))
		for _, t := range page.Tasks {
			tasks = append(tasks, taskDTO{
				ID:        t.ID,
				Title:     t.Title,
				Course:    t.Course,
				Category:  string(t.Category),
				Completed: t.Completed,
				Due:       model.DateKey(t.Due),
			})
		}

		groups = append(groups, groupDTO{
			Date:      g.Date,
			Total:     len(g.Tasks),
			PageIndex: page.PageIndex,
			PageCount: page.PageCount,
			Tasks:     tasks,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page_size": pageSize,
		"groups":    groups,
		"excluded":  grouped.Excluded,
	})
}

// Refresh re-fetches all sources, replacing the in-memory cache. Called
// by the cron scheduler and by -once runs.
func (s *Server) Refresh(ctx context.Context) error {
	data, err := s.fetchAll(ctx)
	if err != nil {
		return err
	}

	s.dataMu.Lock()
	s.data = data
	s.dataMu.Unlock()

	log.Info("sources refreshed", "events", len(data.events), "tasks", len(data.tasks))
	return nil
}

// loadData returns cached data, refreshing when the TTL has lapsed.
func (s *Server) loadData(ctx context.Context) (*dataCache, error) {
	s.dataMu.RLock()
	d := s.data
	s.dataMu.RUnlock()
	if d != nil && time.Since(d.updatedAt) < dataCacheTTL {
		return d, nil
	}

	fresh, err := s.fetchAll(ctx)
	if err != nil {
		// Serve stale data over an error if we have any.
		if d != nil {
			log.Error("source refresh failed, serving stale data", err)
			return d, nil
		}
		return nil, err
	}

	s.dataMu.Lock()
	s.data = fresh
	s.dataMu.Unlock()
	return fresh, nil
}

// fetchAll pulls every configured source and merges the results.
// Individual source failures are logged and skipped so one dead feed
// cannot blank the whole calendar; only a total failure is an error.
func (s *Server) fetchAll(ctx context.Context) (*dataCache, error) {
	now := time.Now().In(s.loc)
	rangeStart := now.AddDate(0, 0, -s.cfg.BackfillDays)
	rangeEnd := now.AddDate(0, 0, s.cfg.HorizonDays)

	var (
		events  []model.Event
		tasks   []model.Task
		errs    []error
		sources int
	)

	for _, rc := range s.cfg.REST {
		if rc.EventsURL == "" && rc.TasksURL == "" {
			continue
		}
		sources++

		evs, err := s.rest.Events(ctx, rc)
		if err != nil {
			errs = append(errs, err)
			log.Error("rest events fetch failed", err, "id", rc.ID)
		} else {
			events = append(events, evs...)
		}

		ts, err := s.rest.Tasks(ctx, rc)
		if err != nil {
			errs = append(errs, err)
			log.Error("rest tasks fetch failed", err, "id", rc.ID)
		} else {
			tasks = append(tasks, ts...)
		}
	}

	for _, ic := range s.cfg.ICS {
		if ic.URL == "" {
			continue
		}
		sources++

		id := ic.ID
		if id == "" {
			id = ic.Name
		}
		feed := ics.Feed{ID: id, URL: ic.URL}

		res, err := s.fetcher.Fetch(ctx, source.Endpoint{ID: id, URL: ic.URL})
		if err != nil {
			errs = append(errs, err)
			log.Error("ics fetch failed", err, "id", id)
			continue
		}

		parsed, err := ics.ParseICS(feed, res.Body)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		expanded, err := ics.Expand(parsed, ics.ExpandConfig{
			DisplayLocation: s.loc,
			RangeStart:      rangeStart,
			RangeEnd:        rangeEnd,
			Classifier:      s.classifier,
		})
		if err != nil {
			errs = append(errs, err)
			log.Error("ics expand failed", err, "id", id)
			continue
		}
		events = append(events, expanded.Events...)
	}

	if sources > 0 && len(errs) > 0 && len(events) == 0 && len(tasks) == 0 {
		return nil, errorsAggregate(errs)
	}

	return &dataCache{
		events:    events,
		tasks:     tasks,
		updatedAt: time.Now(),
	}, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// parseWeekStart parses a YYYY-MM-DD week start, defaulting to the
// Sunday of the current week.
func parseWeekStart(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if s == "" {
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		return day.AddDate(0, 0, -int(day.Weekday())), nil
	}
	return time.ParseInLocation("2006-01-02", s, loc)
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

func errorsAggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Error())
	}
	return errors.New(b.String())
}
