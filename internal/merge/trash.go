package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Trash moves files to the OS's user-level trash rather than unlinking
// them outright, so undo can restore them within the retention window.
// There is no third-party trash library in the dependency stack available
// to this project, so this follows the freedesktop.org Trash
// specification directly (move into ~/.local/share/Trash/files with a
// sibling .trashinfo sidecar) — the same standard every desktop Linux
// file manager implements.
type Trash struct {
	filesDir string
	infoDir  string
}

// NewTrash returns a Trash rooted at the XDG data home trash directory,
// creating it if necessary.
func NewTrash(dataHome string) (*Trash, error) {
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	root := filepath.Join(dataHome, "Trash")
	filesDir := filepath.Join(root, "files")
	infoDir := filepath.Join(root, "info")
	if err := os.MkdirAll(filesDir, 0o700); err != nil {
		return nil, fmt.Errorf("create trash files dir: %w", err)
	}
	if err := os.MkdirAll(infoDir, 0o700); err != nil {
		return nil, fmt.Errorf("create trash info dir: %w", err)
	}
	return &Trash{filesDir: filesDir, infoDir: infoDir}, nil
}

// Move relocates absPath into the trash and returns a restore token
// identifying the trashed copy (its basename within the trash, stable
// across process restarts).
func (t *Trash) Move(absPath string) (restoreToken string, err error) {
	base := filepath.Base(absPath)
	token := uniqueTrashName(base, t.filesDir)

	dest := filepath.Join(t.filesDir, token)
	if err := os.Rename(absPath, dest); err != nil {
		return "", fmt.Errorf("move to trash: %w", err)
	}

	info := trashInfoContents(absPath)
	infoPath := filepath.Join(t.infoDir, token+".trashinfo")
	if err := os.WriteFile(infoPath, []byte(info), 0o600); err != nil {
		// best effort: the file is already moved, missing sidecar just
		// loses the original-path metadata for manual recovery tools
		return token, fmt.Errorf("write trashinfo sidecar: %w", err)
	}
	return token, nil
}

// Restore moves the trashed file identified by restoreToken back to
// originalPath.
func (t *Trash) Restore(restoreToken, originalPath string) error {
	src := filepath.Join(t.filesDir, restoreToken)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("trashed file not found: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(originalPath), 0o755); err != nil {
		return fmt.Errorf("recreate original directory: %w", err)
	}
	if err := os.Rename(src, originalPath); err != nil {
		return fmt.Errorf("restore from trash: %w", err)
	}
	_ = os.Remove(filepath.Join(t.infoDir, restoreToken+".trashinfo"))
	return nil
}

// Exists reports whether a trashed copy identified by restoreToken is
// still present, used by crash recovery's verification pass.
func (t *Trash) Exists(restoreToken string) bool {
	_, err := os.Stat(filepath.Join(t.filesDir, restoreToken))
	return err == nil
}

func uniqueTrashName(base, filesDir string) string {
	candidate := base
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(filesDir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		candidate = stem + "_" + strconv.Itoa(i) + ext
	}
}

func trashInfoContents(originalPath string) string {
	return fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		originalPath, time.Now().Format("2006-01-02T15:04:05"))
}
