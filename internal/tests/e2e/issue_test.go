//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Bhuvanani14/goodcity/config"
	"github.com/Bhuvanani14/goodcity/internal/server"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestIssueLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	username := fmt.Sprintf("admin_%d", time.Now().UnixNano())
	password := "testpass123!"

	token, err := registerAndLogin(t, baseURL, username, password)
	if err != nil {
		t.Fatalf("register user: %v", err)
	}

	if err := promoteUserToAdmin(username); err != nil {
		t.Fatalf("promote user: %v", err)
	}

	// Re-login so the token carries the admin role.
	token, err = login(t, baseURL, username, password)
	if err != nil {
		t.Fatalf("login as admin: %v", err)
	}

	created, err := createIssue(t, baseURL, token)
	if err != nil {
		t.Fatalf("create issue: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected issue ID to be set")
	}
	if created.Status != "pending" || created.Priority != "moderate" {
		t.Fatalf("unexpected defaults: status=%q priority=%q", created.Status, created.Priority)
	}

	listed, err := listIssues(t, baseURL)
	if err != nil {
		t.Fatalf("list issues: %v", err)
	}
	if !containsIssue(listed.Issues, created.ID) {
		t.Fatalf("created issue %d missing from listing", created.ID)
	}

	votes, err := voteIssue(t, baseURL, token, created.ID)
	if err != nil {
		t.Fatalf("vote issue: %v", err)
	}
	if votes != 1 {
		t.Fatalf("expected 1 vote, got %d", votes)
	}

	resolved, err := resolveIssue(t, baseURL, token, created.ID)
	if err != nil {
		t.Fatalf("resolve issue: %v", err)
	}
	if resolved.Status != "resolved" {
		t.Fatalf("unexpected status after resolve: %q", resolved.Status)
	}
	if resolved.ResolvedAt == nil {
		t.Fatalf("expected resolved_at to be stamped")
	}

	stats, err := adminStats(t, baseURL, token)
	if err != nil {
		t.Fatalf("admin stats: %v", err)
	}
	if stats.ResolvedIssues < 1 {
		t.Fatalf("expected at least one resolved issue, got %d", stats.ResolvedIssues)
	}
	if stats.ActiveUsers < 1 {
		t.Fatalf("expected at least one active user, got %d", stats.ActiveUsers)
	}
}

type issueResponse struct {
	ID         int        `json:"id"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	Priority   string     `json:"priority"`
	Votes      int        `json:"votes"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

type issueListResponse struct {
	Issues []issueResponse `json:"issues"`
}

type voteResponse struct {
	Votes int `json:"votes"`
}

type statsResponse struct {
	TotalIssues    int `json:"totalIssues"`
	ResolvedIssues int `json:"resolvedIssues"`
	ActiveUsers    int `json:"activeUsers"`
}

type authResponse struct {
	Token string `json:"token"`
}

func registerAndLogin(t *testing.T, baseURL, username, password string) (string, error) {
	t.Helper()

	payload := map[string]string{
		"username": username,
		"email":    fmt.Sprintf("%s@example.com", username),
		"password": password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	resp, err := postJSON(baseURL+"/auth/register", "", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("register status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return login(t, baseURL, username, password)
}

func login(t *testing.T, baseURL, username, password string) (string, error) {
	t.Helper()

	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}

	resp, err := postJSON(baseURL+"/auth/login", "", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed authResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("missing token in login response")
	}
	return parsed.Token, nil
}

func promoteUserToAdmin(username string) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = db.ExecContext(ctx, "UPDATE users SET role = 'admin', updated_at = NOW() WHERE username = $1", username)
	return err
}

func createIssue(t *testing.T, baseURL, token string) (issueResponse, error) {
	t.Helper()

	body, err := json.Marshal(map[string]string{
		"title":       "Broken streetlight",
		"description": "The light at the corner has been out for a week.",
		"category":    "infrastructure",
		"location":    "5th and Oak",
	})
	if err != nil {
		return issueResponse{}, err
	}

	resp, err := postJSON(baseURL+"/issues", token, body)
	if err != nil {
		return issueResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return issueResponse{}, fmt.Errorf("create issue status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed issueResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return issueResponse{}, err
	}
	return parsed, nil
}

func listIssues(t *testing.T, baseURL string) (issueListResponse, error) {
	t.Helper()

	resp, err := http.Get(baseURL + "/issues")
	if err != nil {
		return issueListResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return issueListResponse{}, fmt.Errorf("list issues status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed issueListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return issueListResponse{}, err
	}
	return parsed, nil
}

func voteIssue(t *testing.T, baseURL, token string, id int) (int, error) {
	t.Helper()

	resp, err := postJSON(fmt.Sprintf("%s/issues/%d/vote", baseURL, id), token, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("vote status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed voteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, err
	}
	return parsed.Votes, nil
}

func resolveIssue(t *testing.T, baseURL, token string, id int) (issueResponse, error) {
	t.Helper()

	body := []byte(`{"status":"resolved"}`)
	req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/issues/%d", baseURL, id), bytes.NewReader(body))
	if err != nil {
		return issueResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return issueResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return issueResponse{}, fmt.Errorf("resolve status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed issueResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return issueResponse{}, err
	}
	return parsed, nil
}

func adminStats(t *testing.T, baseURL, token string) (statsResponse, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/admin/stats", nil)
	if err != nil {
		return statsResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return statsResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return statsResponse{}, fmt.Errorf("stats status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return statsResponse{}, err
	}
	return parsed, nil
}

func postJSON(url, token string, body []byte) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return http.DefaultClient.Do(req)
}

func containsIssue(issues []issueResponse, id int) bool {
	for _, issue := range issues {
		if issue.ID == id {
			return true
		}
	}
	return false
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func buildPostgresURL(cfg config.Config) string {
	sslmode := "disable"
	if cfg.Database.UseSSL {
		sslmode = "require"
	}
	host := fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		host,
		cfg.Database.DBName,
		sslmode,
	)
}

func startServer() (*server.Server, error) {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "goodcity")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "goodcity_db")
	_ = os.Setenv("DB_USE_SSL", "false")

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
