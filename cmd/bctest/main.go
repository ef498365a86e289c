// Command bctest runs the compiler as a subprocess over a directory of
// `.b` fixtures, one fixture per temp directory, and diffs the generated
// `a.s` against a checked-in golden file — refreshed with -golden when a
// change is intentional. A subprocess, not an in-process call, is used
// because a malformed fixture is expected to make the compiler call
// os.Exit(1), which an in-process harness could not recover from.
// Fixtures run across a worker pool sized by -j; cache updates are applied
// sequentially after the pool drains so the hash cache never needs locking.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
)

var (
	compilerPath = flag.String("compiler", "./bcause", "Path to the compiler binary under test.")
	testGlob     = flag.String("fixtures", "testdata/*.b", "Glob pattern for fixture source files.")
	writeGolden  = flag.Bool("golden", false, "Write/refresh the golden .s file for every matched fixture instead of comparing.")
	cacheFile    = flag.String("cache", "", "Path to a cache file mapping fixture hash to last result; skips re-diffing unchanged fixtures when set.")
	verbose      = flag.Bool("v", false, "Print every fixture name, not just failures.")
	jobs         = flag.Int("j", 4, "Number of fixtures to run concurrently.")
)

const (
	cRed   = "\x1b[91m"
	cGreen = "\x1b[92m"
	cNone  = "\x1b[0m"
)

type result struct {
	fixture string
	hash    string
	status  string
	err     error
}

func main() {
	flag.Parse()
	log.SetFlags(0)

	// Each fixture runs with its working directory set to a temp directory,
	// so a relative -compiler path is resolved here, against the directory
	// bctest was started in. A bare name is still looked up in PATH.
	if strings.ContainsRune(*compilerPath, filepath.Separator) {
		abs, err := filepath.Abs(*compilerPath)
		if err != nil {
			log.Fatalf("resolving -compiler path %q: %v", *compilerPath, err)
		}
		*compilerPath = abs
	}

	fixtures, err := filepath.Glob(*testGlob)
	if err != nil {
		log.Fatalf("bad -fixtures pattern %q: %v", *testGlob, err)
	}
	if len(fixtures) == 0 {
		log.Fatalf("no fixtures matched %q", *testGlob)
	}
	sort.Strings(fixtures)

	tempDir, err := os.MkdirTemp("", "bctest-*")
	if err != nil {
		log.Fatalf("%s[ERROR]%s failed to create temp directory: %v\n", cRed, cNone, err)
	}
	defer os.RemoveAll(tempDir)
	setupInterruptHandler(tempDir)

	cache := loadCache(*cacheFile)

	tasks := make(chan string, len(fixtures))
	results := make(chan result, len(fixtures))
	var wg sync.WaitGroup

	workers := *jobs
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fixture := range tasks {
				status, hash, err := runFixture(fixture, tempDir, cache)
				results <- result{fixture: fixture, hash: hash, status: status, err: err}
			}
		}()
	}
	for _, fixture := range fixtures {
		tasks <- fixture
	}
	close(tasks)

	go func() {
		wg.Wait()
		close(results)
	}()

	byFixture := make(map[string]result, len(fixtures))
	for r := range results {
		byFixture[r.fixture] = r
	}

	failures := 0
	for _, fixture := range fixtures {
		r := byFixture[fixture]
		if r.err != nil {
			fmt.Printf("%s[FAIL]%s %s: %v\n", cRed, cNone, fixture, r.err)
			failures++
			continue
		}
		cache[fixture] = r.hash
		if *verbose {
			fmt.Printf("%s[%s]%s %s\n", cGreen, r.status, cNone, fixture)
		}
	}

	if *cacheFile != "" {
		saveCache(*cacheFile, cache)
	}

	if failures > 0 {
		fmt.Printf("%s%d of %d fixtures failed%s\n", cRed, failures, len(fixtures), cNone)
		os.Exit(1)
	}
	fmt.Printf("%sall %d fixtures passed%s\n", cGreen, len(fixtures), cNone)
}

func setupInterruptHandler(tempDir string) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		os.RemoveAll(tempDir)
		fmt.Printf("\n%s[INTERRUPT]%s test run cancelled, cleaning up\n", cRed, cNone)
		os.Exit(1)
	}()
}

func goldenPath(fixture string) string {
	return strings.TrimSuffix(fixture, filepath.Ext(fixture)) + ".s"
}

// runFixture runs the compiler with -S over one fixture, isolated in its own
// subdirectory of tempDir (the compiler always writes to the fixed path
// a.s in its working directory), and either writes or compares the result
// against the fixture's golden .s file.
// runFixture does not mutate cache; callers serialize cache updates after
// collecting this goroutine's result, since a map is not safe for concurrent
// writes from the worker pool.
func runFixture(fixture, tempDir string, cache map[string]string) (status, hash string, err error) {
	data, err := os.ReadFile(fixture)
	if err != nil {
		return "", "", fmt.Errorf("reading fixture: %w", err)
	}
	hash = fmt.Sprintf("%x", xxhash.Sum64(data))
	golden := goldenPath(fixture)

	if !*writeGolden {
		if cached, ok := cache[fixture]; ok && cached == hash {
			return "CACHED", hash, nil
		}
	}

	workDir, err := os.MkdirTemp(tempDir, "fixture-*")
	if err != nil {
		return "", hash, fmt.Errorf("creating work directory: %w", err)
	}

	absFixture, err := filepath.Abs(fixture)
	if err != nil {
		return "", hash, fmt.Errorf("resolving fixture path: %w", err)
	}

	cmd := exec.Command(*compilerPath, "-S", absFixture)
	cmd.Dir = workDir
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", hash, fmt.Errorf("compiler failed: %v\n%s", err, stderr.String())
	}

	got, err := os.ReadFile(filepath.Join(workDir, "a.s"))
	if err != nil {
		return "", hash, fmt.Errorf("reading generated assembly: %w", err)
	}

	if *writeGolden {
		if err := os.WriteFile(golden, got, 0644); err != nil {
			return "", hash, fmt.Errorf("writing golden file: %w", err)
		}
		return "WROTE", hash, nil
	}

	want, err := os.ReadFile(golden)
	if err != nil {
		return "", hash, fmt.Errorf("reading golden file %s (run with -golden to create it): %w", golden, err)
	}

	if diff := cmp.Diff(string(want), string(got)); diff != "" {
		return "", hash, fmt.Errorf("assembly mismatch (-want +got):\n%s", diff)
	}

	return "OK", hash, nil
}

func loadCache(path string) map[string]string {
	cache := map[string]string{}
	if path == "" {
		return cache
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cache
	}
	for _, line := range strings.Split(string(data), "\n") {
		parts := strings.SplitN(line, " ", 2)
		if len(parts) == 2 {
			cache[parts[0]] = parts[1]
		}
	}
	return cache
}

func saveCache(path string, cache map[string]string) {
	keys := make([]string, 0, len(cache))
	for k := range cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %s\n", k, cache[k])
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		log.Printf("warning: could not write cache file %s: %v", path, err)
	}
}
