package main

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/identity"
	"github.com/hackgods/clinic-scheduling/internal/logging"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	CancelRatio  float64
	SearchRatio  float64
	ListRatio    float64
	PatientLimit int
	SearchWeeks  int
}

// DataPool holds what workers pick from: patient tokens, specializations,
// slots seen in search results and appointments they created.
type DataPool struct {
	PatientTokens   []string
	Specializations []uuid.UUID

	mu           sync.RWMutex
	slots        []uuid.UUID
	appointments []booked
}

type booked struct {
	ID    uuid.UUID
	Token string
}

func (dp *DataPool) AddSlots(ids []uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.slots = append(dp.slots, ids...)
	// keep the pool bounded; old entries are likely booked anyway
	if len(dp.slots) > 5000 {
		dp.slots = dp.slots[len(dp.slots)-5000:]
	}
}

func (dp *DataPool) RandomSlot(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.slots) == 0 {
		return uuid.Nil, false
	}
	return dp.slots[rng.Intn(len(dp.slots))], true
}

func (dp *DataPool) AddAppointment(b booked) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, b)
}

// TakeAppointment removes and returns a random appointment.
func (dp *DataPool) TakeAppointment(rng *rand.Rand) (booked, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.appointments) == 0 {
		return booked{}, false
	}
	i := rng.Intn(len(dp.appointments))
	b := dp.appointments[i]
	dp.appointments[i] = dp.appointments[len(dp.appointments)-1]
	dp.appointments = dp.appointments[:len(dp.appointments)-1]
	return b, true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	i := n * p / 100
	if i >= n {
		i = n - 1
	}
	return i
}

type Metrics struct {
	Search  OperationMetrics
	Booking OperationMetrics
	Cancel  OperationMetrics
	List    OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	log     zerolog.Logger
}

func main() {
	baseCfg, err := config.Load()
	if err != nil {
		boot := logging.New("dev", "info", "simulate")
		boot.Fatal().Err(err).Msg("config load error")
	}
	log := logging.New(baseCfg.Env, baseCfg.LogLevel, "simulate")

	cfg := loadConfig()
	if err := validateConfig(cfg, baseCfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	log.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("booking", cfg.BookingRatio).
		Float64("cancel", cfg.CancelRatio).
		Float64("search", cfg.SearchRatio).
		Msg("simulator starting")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, baseCfg.PostgresDSN, db.PoolOptions{MaxConns: 2, MinConns: 1})
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pgPool.Close()

	tokens := identity.NewManager(baseCfg.JWTSecret, baseCfg.JWTIssuer)
	dataPool, err := loadDataPool(ctx, pgPool, tokens, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load data pool")
	}

	log.Info().
		Int("patients", len(dataPool.PatientTokens)).
		Int("specializations", len(dataPool.Specializations)).
		Msg("data pool loaded")

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.4),
		CancelRatio:  getFloat("SIM_CANCEL_RATIO", 0.1),
		SearchRatio:  getFloat("SIM_SEARCH_RATIO", 0.4),
		ListRatio:    getFloat("SIM_LIST_RATIO", 0.1),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 1000),
		SearchWeeks:  getInt("SIM_SEARCH_WEEKS", 4),
	}

	total := cfg.BookingRatio + cfg.CancelRatio + cfg.SearchRatio + cfg.ListRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.CancelRatio /= total
		cfg.SearchRatio /= total
		cfg.ListRatio /= total
	}
	return cfg
}

func validateConfig(cfg SimConfig, base config.Config) error {
	if base.StorageDriver != config.StoragePostgres {
		return fmt.Errorf("simulate reads patients from Postgres; set STORAGE_DRIVER=%s", config.StoragePostgres)
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, tokens *identity.Manager, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT id FROM users WHERE role = 'patient' LIMIT $1`, cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		tok, err := tokens.Issue(identity.Identity{UserID: id, Role: identity.RolePatient}, cfg.Duration+time.Hour)
		if err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.PatientTokens = append(dataPool.PatientTokens, tok)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = pool.Query(ctx, `SELECT DISTINCT specialization_id FROM doctor_specializations`)
	if err != nil {
		return nil, fmt.Errorf("load specializations: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Specializations = append(dataPool.Specializations, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(dataPool.PatientTokens) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}
	if len(dataPool.Specializations) == 0 {
		return nil, fmt.Errorf("no doctor specializations loaded")
	}
	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r := rng.Float64()
		switch {
		case r < s.config.SearchRatio:
			s.doSearch(ctx, rng)
		case r < s.config.SearchRatio+s.config.BookingRatio:
			s.doBooking(ctx, rng)
		case r < s.config.SearchRatio+s.config.BookingRatio+s.config.CancelRatio:
			s.doCancel(ctx, rng)
		default:
			s.doList(ctx, rng)
		}
	}
}

func (s *Simulator) patientToken(rng *rand.Rand) string {
	return s.pool.PatientTokens[rng.Intn(len(s.pool.PatientTokens))]
}

func (s *Simulator) send(ctx context.Context, method, path, token string, body any) (*http.Response, time.Duration, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := s.client.Do(req)
	return resp, time.Since(start), err
}

func (s *Simulator) doSearch(ctx context.Context, rng *rand.Rand) {
	spec := s.pool.Specializations[rng.Intn(len(s.pool.Specializations))]
	from := time.Now().UTC()
	to := from.AddDate(0, 0, 7*s.config.SearchWeeks)

	q := url.Values{}
	q.Set("specializationId", spec.String())
	q.Set("from", from.Format(time.RFC3339))
	q.Set("to", to.Format(time.RFC3339))
	q.Set("limit", "50")
	q.Set("offset", strconv.Itoa(rng.Intn(3)*50))

	resp, latency, err := s.send(ctx, http.MethodGet, "/patients/me/slots/search?"+q.Encode(), s.patientToken(rng), nil)
	success := false
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			var page struct {
				Items []struct {
					ID uuid.UUID `json:"id"`
				} `json:"items"`
			}
			if json.NewDecoder(resp.Body).Decode(&page) == nil {
				success = true
				ids := make([]uuid.UUID, 0, len(page.Items))
				for _, it := range page.Items {
					ids = append(ids, it.ID)
				}
				s.pool.AddSlots(ids)
			}
		}
	}
	if ctx.Err() == nil {
		s.metrics.Search.Record(latency, success, false)
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	slotID, ok := s.pool.RandomSlot(rng)
	if !ok {
		return
	}
	token := s.patientToken(rng)

	resp, latency, err := s.send(ctx, http.MethodPost, "/patients/me/appointments", token, map[string]string{
		"slotId": slotID.String(),
	})

	success, conflict := false, false
	if err == nil {
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusCreated:
			var appt struct {
				ID uuid.UUID `json:"id"`
			}
			if json.NewDecoder(resp.Body).Decode(&appt) == nil && appt.ID != uuid.Nil {
				success = true
				s.pool.AddAppointment(booked{ID: appt.ID, Token: token})
			}
		case http.StatusConflict:
			conflict = true
		}
	}
	if ctx.Err() == nil {
		s.metrics.Booking.Record(latency, success, conflict)
	}
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	b, ok := s.pool.TakeAppointment(rng)
	if !ok {
		return
	}

	resp, latency, err := s.send(ctx, http.MethodPatch, "/patients/me/appointments/"+b.ID.String()+"/cancel", b.Token, nil)
	success, conflict := false, false
	if err == nil {
		resp.Body.Close()
		success = resp.StatusCode == http.StatusNoContent
		conflict = resp.StatusCode == http.StatusNotFound
	}
	if ctx.Err() == nil {
		s.metrics.Cancel.Record(latency, success, conflict)
	}
}

func (s *Simulator) doList(ctx context.Context, rng *rand.Rand) {
	resp, latency, err := s.send(ctx, http.MethodGet, "/patients/me/appointments", s.patientToken(rng), nil)
	success := false
	if err == nil {
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}
	if ctx.Err() == nil {
		s.metrics.List.Record(latency, success, false)
	}
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Slot search", &s.metrics.Search)
	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("List appointments", &s.metrics.List)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
