package yamlrules

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"pickit/internal/app/ports"
	"pickit/internal/domain/loot"
)

var (
	ErrInvalidRulesPath = errors.New("invalid rules filepath")
	ErrMissingRuleFile  = errors.New("rule file missing")
	ErrEmptyRule        = errors.New("empty rule")
	ErrInvalidRuleFile  = errors.New("invalid rule file")
)

// RuleLoadError names the rule set and file that failed to load.
type RuleLoadError struct {
	Set  string
	Path string
	Err  error
}

func (e *RuleLoadError) Error() string {
	return fmt.Sprintf("rule set %q (%s): %v", e.Set, e.Path, e.Err)
}

func (e *RuleLoadError) Unwrap() error { return e.Err }

type Config struct {
	// ConfigDir holds the rule files unless CustomDir names another folder.
	ConfigDir string
	// CustomDir is resolved against the parent of ConfigDir.
	CustomDir string
	RuleSets  []ports.RuleSet
	Logger    *slog.Logger
}

// Provider loads named YAML rule sets from disk. The compiled matcher is
// replaced as a whole on every successful reload.
type Provider struct {
	cfg     Config
	logger  *slog.Logger
	schemas schemas

	mu      sync.Mutex
	sets    []ports.RuleSet
	matcher atomic.Pointer[ruleList]
}

func New(cfg Config) (*Provider, error) {
	s, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{
		cfg:     cfg,
		logger:  logger.With("component", "rules"),
		schemas: s,
		sets:    append([]ports.RuleSet(nil), cfg.RuleSets...),
	}
	p.matcher.Store(&ruleList{})
	return p, nil
}

func (p *Provider) Matches(item loot.Label) bool {
	m := p.matcher.Load()
	if m == nil {
		return false
	}
	return m.Matches(item)
}

// Dir resolves the folder rule files are read from. A custom folder that does
// not exist is reported and the config dir is used instead.
func (p *Provider) Dir() (string, error) {
	custom := strings.TrimSpace(p.cfg.CustomDir)
	if custom == "" {
		return p.cfg.ConfigDir, nil
	}
	parent := filepath.Dir(filepath.Clean(p.cfg.ConfigDir))
	dir, err := secureJoin(parent, custom)
	if err != nil {
		return p.cfg.ConfigDir, fmt.Errorf("custom config dir %q: %w", custom, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return p.cfg.ConfigDir, fmt.Errorf("custom config dir %q: %w", custom, err)
	}
	if !info.IsDir() {
		return p.cfg.ConfigDir, fmt.Errorf("custom config dir %q: %w", custom, ErrInvalidRulesPath)
	}
	return dir, nil
}

func (p *Provider) RuleSets() []ports.RuleSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.RuleSet(nil), p.sets...)
}

func (p *Provider) SetEnabled(name string, enabled bool) error {
	p.mu.Lock()
	idx := -1
	for i := range p.sets {
		if p.sets[i].Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		p.mu.Unlock()
		return fmt.Errorf("rule set %q: %w", name, ports.ErrNotFound)
	}
	p.sets[idx].Enabled = enabled
	p.mu.Unlock()
	return p.Reload(context.Background())
}

// Reload rescans the rules folder and recompiles the enabled sets. Any
// failure leaves the previously compiled matcher in place. A custom folder
// that cannot be used is only logged; the config dir serves instead.
func (p *Provider) Reload(ctx context.Context) error {
	dir, dirErr := p.Dir()
	if dirErr != nil {
		p.logger.Warn("rules dir unusable, using config dir", "err", dirErr, "fallback", dir)
	}
	files, err := listRuleFiles(dir)
	if err != nil {
		p.logger.Error("list rule files", "dir", dir, "err", err)
		return err
	}

	p.mu.Lock()
	sets, dropped := reconcile(p.sets, files)
	p.sets = sets
	enabled := make([]ports.RuleSet, 0, len(sets))
	for _, s := range sets {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	p.mu.Unlock()

	var errs []error
	for _, s := range dropped {
		err := fmt.Errorf("rule set %q at %q: %w", s.Name, s.Location, ErrMissingRuleFile)
		p.logger.Error("drop rule set", "err", err)
		errs = append(errs, err)
	}

	compiled := ruleList{}
	for _, s := range enabled {
		if err := ctx.Err(); err != nil {
			return err
		}
		rules, err := p.loadFile(dir, s.Location)
		if err != nil {
			err = &RuleLoadError{Set: s.Name, Path: s.Location, Err: err}
			p.logger.Error("load rule set", "set", s.Name, "path", s.Location, "err", err)
			return errors.Join(append(errs, err)...)
		}
		compiled = append(compiled, rules...)
	}
	p.matcher.Store(&compiled)
	p.logger.Info("rules reloaded", "dir", dir, "sets", len(enabled), "rules", len(compiled))
	return errors.Join(errs...)
}

// Compile parses one ad hoc rule, written as a single YAML mapping.
func (p *Provider) Compile(rule string) (ports.ItemMatcher, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, ErrEmptyRule
	}
	if err := validateYAML(p.schemas.rule, []byte(rule)); err != nil {
		return nil, fmt.Errorf("validate rule: %w", err)
	}
	var r Rule
	if err := yaml.Unmarshal([]byte(rule), &r); err != nil {
		return nil, fmt.Errorf("parse rule: %w", err)
	}
	return r, nil
}

func (p *Provider) loadFile(dir, location string) ([]Rule, error) {
	path, err := secureJoin(dir, location)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateYAML(p.schemas.document, raw); err != nil {
		return nil, fmt.Errorf("validate %s: %w: %w", location, ErrInvalidRuleFile, err)
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w: %w", location, ErrInvalidRuleFile, err)
	}
	return doc.Rules, nil
}

// reconcile keeps configured sets in their order, drops the ones whose file
// is gone and appends new files as disabled sets.
func reconcile(configured []ports.RuleSet, files []string) (kept, dropped []ports.RuleSet) {
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f] = true
	}
	known := make(map[string]bool, len(configured))
	for _, s := range configured {
		if s.Location == "" {
			s.Location = s.Name + ".yaml"
		}
		if !present[s.Location] {
			dropped = append(dropped, s)
			continue
		}
		known[s.Location] = true
		kept = append(kept, s)
	}
	for _, f := range files {
		if known[f] {
			continue
		}
		kept = append(kept, ports.RuleSet{
			Name:     strings.TrimSuffix(f, filepath.Ext(f)),
			Location: f,
		})
	}
	return kept, dropped
}

func listRuleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type()&fs.ModeType != 0 {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func secureJoin(root, rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", ErrInvalidRulesPath
	}
	if filepath.IsAbs(rel) {
		return "", ErrInvalidRulesPath
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	target := filepath.Clean(filepath.Join(rootAbs, rel))
	prefix := rootAbs + string(filepath.Separator)
	if target != rootAbs && !strings.HasPrefix(target, prefix) {
		return "", ErrInvalidRulesPath
	}
	return target, nil
}
