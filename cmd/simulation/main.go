package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ksred/trade-ledger/internal/api"
	"github.com/ksred/trade-ledger/internal/database"
	"github.com/ksred/trade-ledger/internal/types"
)

const (
	numWorkers       = 5
	tradesPerWorker  = 40
	seededPortfolios = 5
)

var symbols = []string{"APP", "GOG", "IBM", "TSL", "NAS"}

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))
	median = rs.durations[len(rs.durations)/2]

	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the ledger API
type simulationClient struct {
	baseURL string
	runID   string
	client  *http.Client

	mu    sync.Mutex
	stats map[string]*routeStats
}

func newSimulationClient(baseURL string) *simulationClient {
	return &simulationClient{
		baseURL: baseURL,
		runID:   uuid.New().String(),
		client:  &http.Client{Timeout: 10 * time.Second},
		stats: map[string]*routeStats{
			"buy":      {name: "Buy"},
			"sell":     {name: "Sell"},
			"quantity": {name: "Quantity"},
			"holdings": {name: "Holdings"},
		},
	}
}

func (sc *simulationClient) record(route string, d time.Duration, failed bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	s := sc.stats[route]
	s.durations = append(s.durations, d)
	s.totalCalls++
	if failed {
		s.failures++
	}
}

// do sends a request and decodes the envelope's data field into out. It
// returns the HTTP status code.
func (sc *simulationClient) do(route, method, path string, body interface{}, out interface{}) (int, error) {
	start := time.Now()
	status := 0
	defer func() {
		sc.record(route, time.Since(start), status >= 500 || status == 0)
	}()

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, sc.baseURL+path, payload)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", sc.runID+"-"+uuid.New().String())

	resp, err := sc.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return status, fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("route", route).Str("response", string(respBody)).Msg("response")

	if out == nil || status != http.StatusOK {
		return status, nil
	}

	envelope := struct {
		Success bool        `json:"success"`
		Data    interface{} `json:"data"`
	}{Data: out}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return status, fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return status, nil
}

func (sc *simulationClient) trade(side string, portfolioID uint, symbol string) (int, error) {
	req := types.TradeRequest{PortfolioID: portfolioID, ShareSymbol: symbol}
	return sc.do(strings.ToLower(side), http.MethodPost, "/api/v1/trades/"+strings.ToLower(side), req, nil)
}

func (sc *simulationClient) quantity(portfolioID uint, symbol string) (int64, error) {
	var out types.QuantityResponse
	path := fmt.Sprintf("/api/v1/shares/%s/quantity?portfolio_id=%d", symbol, portfolioID)
	status, err := sc.do("quantity", http.MethodGet, path, nil, &out)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("quantity failed with status %d", status)
	}
	return out.AvailableQuantity, nil
}

func (sc *simulationClient) holdings() (map[string]int64, error) {
	var out types.HoldingsResponse
	status, err := sc.do("holdings", http.MethodGet, "/api/v1/holdings", nil, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("holdings failed with status %d", status)
	}

	result := make(map[string]int64, len(out.Holdings))
	for _, h := range out.Holdings {
		result[h.ShareSymbol] = h.NetQuantity
	}
	return result, nil
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\nAPI Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, stats := range sc.stats {
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Microsecond),
			max.Round(time.Microsecond),
			mean.Round(time.Microsecond),
			median.Round(time.Microsecond),
			p95.Round(time.Microsecond),
			p99.Round(time.Microsecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// tally counts accepted trades per symbol
type tally struct {
	mu       sync.Mutex
	net      map[string]int64
	accepted map[string]int
	rejected map[string]int
}

func (t *tally) add(side, symbol string, status int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if status != http.StatusOK {
		t.rejected[side]++
		return
	}
	t.accepted[side]++
	if side == "BUY" {
		t.net[symbol]++
	} else {
		t.net[symbol]--
	}
}

// main runs the ledger simulation
// It starts a local API server on a scratch database and drives concurrent
// buy/sell traffic, then checks the grouped holdings against what was accepted
func main() {
	port := flag.String("port", "8081", "port for the embedded API server")
	flag.Parse()

	dbPath := filepath.Join(os.TempDir(), fmt.Sprintf("ledger-sim-%s.db", uuid.New().String()))
	defer os.Remove(dbPath)

	go func() {
		if err := startServer(dbPath, *port); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	time.Sleep(time.Second)

	simClient := newSimulationClient("http://localhost:" + *port)

	before, err := simClient.holdings()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read initial holdings")
	}

	counts := &tally{
		net:      make(map[string]int64),
		accepted: make(map[string]int),
		rejected: make(map[string]int),
	}

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			runWorker(workerID, simClient, counts)
		}(i)
	}
	wg.Wait()
	duration := time.Since(start)

	after, err := simClient.holdings()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read final holdings")
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("LEDGER SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Buys accepted:   %d (rejected %d)\n", counts.accepted["BUY"], counts.rejected["BUY"])
	fmt.Printf("Sells accepted:  %d (rejected %d)\n", counts.accepted["SELL"], counts.rejected["SELL"])
	fmt.Printf("Duration:        %v\n\n", duration.Round(time.Millisecond))

	mismatches := 0
	for _, symbol := range symbols {
		expected := before[symbol] + counts.net[symbol]
		marker := "ok"
		if after[symbol] != expected {
			marker = "MISMATCH"
			mismatches++
		}
		fmt.Printf("%-4s before %5d  expected %5d  actual %5d  %s\n",
			symbol, before[symbol], expected, after[symbol], marker)
	}

	simClient.printPerformanceStats()

	if mismatches > 0 {
		log.Error().Int("mismatches", mismatches).Msg("Holdings diverged from accepted trades")
		os.Exit(1)
	}
}

// runWorker sends random buys and sells for the seeded portfolios, checking
// that no portfolio is ever reported below zero
func runWorker(workerID int, simClient *simulationClient, counts *tally) {
	for i := 0; i < tradesPerWorker; i++ {
		portfolioID := uint(rand.Intn(seededPortfolios) + 1)
		symbol := symbols[rand.Intn(len(symbols))]
		side := "BUY"
		if rand.Intn(2) == 0 {
			side = "SELL"
		}

		status, err := simClient.trade(side, portfolioID, symbol)
		if err != nil {
			log.Error().Err(err).Int("worker_id", workerID).Msg("Trade request failed")
			continue
		}
		counts.add(side, symbol, status)

		quantity, err := simClient.quantity(portfolioID, symbol)
		if err != nil {
			log.Error().Err(err).Int("worker_id", workerID).Msg("Quantity request failed")
			continue
		}
		log.Debug().
			Int("worker_id", workerID).
			Str("side", side).
			Uint("portfolio_id", portfolioID).
			Str("symbol", symbol).
			Int("status", status).
			Int64("available_quantity", quantity).
			Msg("Trade submitted")

		time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
	}
}

// startServer initializes and starts the ledger API on a fresh seeded database
func startServer(dbPath, port string) error {
	db, err := database.NewDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if _, err := database.Seed(db); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	router := api.NewRouter(db, nil)
	return router.Run(":" + port)
}
