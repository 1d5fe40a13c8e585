// Package store reads solutions, implementation skills and deploy payloads
// from a directory tree:
//
//	<root>/solutions/<id>.yaml|.yml|.json
//	<root>/skills/<id>.yaml|.yml|.json
//	<root>/connectors.yaml
//	<root>/mcp-store/<connector>/**
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ormasoftchile/meshcheck/pkg/logger"
	"github.com/ormasoftchile/meshcheck/pkg/solution"
	"github.com/ormasoftchile/meshcheck/pkg/validate"
)

var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned for ids that are empty or contain a path separator.
	ErrInvalidID = errors.New("invalid id")
)

const (
	solutionsDir   = "solutions"
	skillsDir      = "skills"
	mcpStoreDir    = "mcp-store"
	connectorsFile = "connectors.yaml"

	defaultConcurrency = 8
)

var extensions = []string{".yaml", ".yml", ".json"}

// Store is a read-only view of a store directory.
type Store struct {
	root string
	sem  *semaphore.Weighted
	log  *logrus.Entry
}

// Option configures a Store.
type Option func(*Store)

// WithConcurrency bounds concurrent skill loads.
func WithConcurrency(n int) Option {
	return func(s *Store) {
		if n < 1 {
			n = 1
		}
		s.sem = semaphore.NewWeighted(int64(n))
	}
}

// WithLogger sets the entry load failures are logged to.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Store) { s.log = l }
}

// New opens a store rooted at root.
func New(root string, opts ...Option) *Store {
	s := &Store{
		root: root,
		sem:  semaphore.NewWeighted(defaultConcurrency),
		log:  logger.L,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the store directory.
func (s *Store) Root() string { return s.root }

// ListSolutions returns the ids of stored solutions, sorted.
func (s *Store) ListSolutions() ([]string, error) {
	return listIDs(filepath.Join(s.root, solutionsDir))
}

// LoadSolution reads solution id.
func (s *Store) LoadSolution(id string) (*solution.Solution, error) {
	path, err := s.find(solutionsDir, id)
	if err != nil {
		return nil, fmt.Errorf("solution %q: %w", id, err)
	}
	sol, err := solution.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("solution %q: %w", id, err)
	}
	return sol, nil
}

// SolutionPath returns the file holding solution id.
func (s *Store) SolutionPath(id string) (string, error) {
	return s.find(solutionsDir, id)
}

// LoadSkills loads the named implementation skills concurrently. A skill
// that cannot be read is returned as a NOT_FOUND placeholder; the combined
// load failures are returned as a non-fatal error alongside the skills.
// Results keep the order of ids.
func (s *Store) LoadSkills(ctx context.Context, ids []string) ([]solution.Skill, error) {
	out := make([]solution.Skill, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			if err := s.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer s.sem.Release(1)
			out[i], errs[i] = s.loadSkill(id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var result *multierror.Error
	for i, err := range errs {
		if err == nil {
			continue
		}
		s.log.WithError(err).WithField("skill", ids[i]).Warn("skill load failed")
		result = multierror.Append(result, err)
	}
	return out, result.ErrorOrNil()
}

func (s *Store) loadSkill(id string) (solution.Skill, error) {
	path, err := s.find(skillsDir, id)
	if err != nil {
		return notFound(id, err), fmt.Errorf("skill %q: %w", id, err)
	}
	sk, err := solution.LoadSkillFile(path)
	if err != nil {
		return notFound(id, err), fmt.Errorf("skill %q: %w", id, err)
	}
	return *sk, nil
}

func notFound(id string, err error) solution.Skill {
	return solution.Skill{ID: id, Status: solution.StatusNotFound, LoadError: err.Error()}
}

// SkillsFor loads every implementation skill in the store plus a NOT_FOUND
// placeholder for each topology skill of sol that no stored skill resolves to.
func (s *Store) SkillsFor(ctx context.Context, sol *solution.Solution) ([]solution.Skill, error) {
	ids, err := listIDs(filepath.Join(s.root, skillsDir))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	skills, loadErr := s.LoadSkills(ctx, ids)
	if skills == nil && loadErr != nil {
		return nil, loadErr
	}

	var missing []string
	for _, ts := range sol.Skills {
		if _, idx := solution.Resolve(ts.ID, skills); idx < 0 {
			missing = append(missing, ts.ID)
		}
	}
	if len(missing) > 0 {
		extra, err := s.LoadSkills(ctx, missing)
		if extra == nil && err != nil {
			return nil, err
		}
		skills = append(skills, extra...)
		if err != nil {
			loadErr = multierror.Append(loadErr, err)
		}
	}
	return skills, loadErr
}

// LoadConnectors reads the deploy-payload connector list. A missing file
// yields no connectors.
func (s *Store) LoadConnectors() ([]solution.Connector, error) {
	path := filepath.Join(s.root, connectorsFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return solution.LoadConnectorsFile(path)
}

// LoadMCPStore reads the server sources under mcp-store, keyed by connector
// id. A missing directory yields a nil map.
func (s *Store) LoadMCPStore() (map[string][]solution.SourceFile, error) {
	dir := filepath.Join(s.root, mcpStoreDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mcp-store: %w", err)
	}

	out := make(map[string][]solution.SourceFile)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		base := filepath.Join(dir, e.Name())
		var files []solution.SourceFile
		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(base, path)
			files = append(files, solution.SourceFile{Path: filepath.ToSlash(rel), Content: string(data)})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("read mcp-store/%s: %w", e.Name(), err)
		}
		out[e.Name()] = files
	}
	return out, nil
}

// DeployContext assembles the deploy payload for sol. Skills that fail to
// load are degraded to NOT_FOUND placeholders and logged; only connector and
// mcp-store read failures are returned.
func (s *Store) DeployContext(ctx context.Context, sol *solution.Solution) (*validate.DeployContext, error) {
	skills, err := s.SkillsFor(ctx, sol)
	if skills == nil && err != nil {
		return nil, err
	}
	connectors, err := s.LoadConnectors()
	if err != nil {
		return nil, err
	}
	sources, err := s.LoadMCPStore()
	if err != nil {
		return nil, err
	}
	return &validate.DeployContext{Skills: skills, Connectors: connectors, MCPStore: sources}, nil
}

func (s *Store) find(dir, id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	for _, ext := range extensions {
		path := filepath.Join(s.root, dir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}

func listIDs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !isDocExt(ext) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ext)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func isDocExt(ext string) bool {
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}
