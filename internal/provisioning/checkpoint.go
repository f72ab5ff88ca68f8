package provisioning

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imamik/k3stage/internal/node"
)

// CheckpointFile is the checkpoint's name inside the state directory.
const CheckpointFile = "checkpoint.yaml"

// PausedStage records why the last run stopped early.
type PausedStage struct {
	Stage  string    `yaml:"stage"`
	Reason string    `yaml:"reason"`
	At     time.Time `yaml:"at"`
}

// Checkpoint is the persisted progress of one node.
type Checkpoint struct {
	Fingerprint string       `yaml:"fingerprint"`
	Completed   []string     `yaml:"completed"`
	Paused      *PausedStage `yaml:"paused,omitempty"`
	UpdatedAt   time.Time    `yaml:"updated_at"`

	path string
	// Discarded is set when a checkpoint for another identity was found.
	Discarded bool `yaml:"-"`
}

// Fingerprint identifies the node a checkpoint belongs to. Any change to the
// node's inventory entry or to the initializer invalidates it.
func Fingerprint(id node.Identity) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s",
		id.Name(), id.Role(), id.Address(), id.Initializer.Name)))
	return hex.EncodeToString(sum[:8])
}

// LoadCheckpoint reads the checkpoint in dir for id. A missing file, a fresh
// run or a foreign fingerprint yields an empty checkpoint.
func LoadCheckpoint(dir string, id node.Identity, fresh bool) (*Checkpoint, error) {
	cp := &Checkpoint{
		Fingerprint: Fingerprint(id),
		path:        filepath.Join(dir, CheckpointFile),
	}
	if fresh {
		return cp, nil
	}

	// #nosec G304
	data, err := os.ReadFile(cp.path)
	if errors.Is(err, os.ErrNotExist) {
		return cp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var stored Checkpoint
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("corrupt checkpoint %s (re-run with --fresh): %w", cp.path, err)
	}
	if stored.Fingerprint != cp.Fingerprint {
		cp.Discarded = true
		return cp, nil
	}
	stored.path = cp.path
	return &stored, nil
}

// Path is where the checkpoint is saved.
func (c *Checkpoint) Path() string {
	return c.path
}

// Done reports whether stage completed in an earlier run.
func (c *Checkpoint) Done(stage string) bool {
	return c != nil && slices.Contains(c.Completed, stage)
}

// MarkDone records stage as completed and clears any pause.
func (c *Checkpoint) MarkDone(stage string) {
	if !slices.Contains(c.Completed, stage) {
		c.Completed = append(c.Completed, stage)
	}
	c.Paused = nil
}

// Pause records that stage stopped the run.
func (c *Checkpoint) Pause(stage, reason string) {
	c.Paused = &PausedStage{Stage: stage, Reason: reason, At: time.Now().UTC()}
}

// Save writes the checkpoint atomically.
func (c *Checkpoint) Save() error {
	c.UpdatedAt = time.Now().UTC()
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}
	return nil
}
