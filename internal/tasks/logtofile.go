package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"

	"github.com/fentz26/ordertasks/internal/logger"
	"github.com/fentz26/ordertasks/internal/models"
	"github.com/fentz26/ordertasks/internal/tags"
)

const (
	// LogFolderPrefix prefixes the per-install log folder under the uploads dir.
	LogFolderPrefix = "ordertasks-log-"
	// LogIDOption is the option holding the current log folder id.
	LogIDOption = "_ordertasks-logid"
	LogFileName = "logfile.txt"

	logTimeFormat = "January 02, 2006 15:04:05"
)

var breakTagRe = regexp.MustCompile(`(?i)<br ?/?>`)

// LogToFileArgs appends a block to the install's log file.
type LogToFileArgs struct {
	Content string `json:"content"`
}

func (LogToFileArgs) Type() Type { return TypeLogToFile }

func (a LogToFileArgs) raw() RawArgs { return RawArgs{"content": a.Content} }

func breaksToNewlines(s string) string {
	return breakTagRe.ReplaceAllString(s, "\n")
}

func executeLogToFile(ctx context.Context, env *Env, order *models.Order, a LogToFileArgs) error {
	reg := tags.NewRegistry()
	reg.RegisterTextDefaults(tags.Content, order, nil)
	reg.Unregister(tags.Content, tags.OrderDetails)
	content := breaksToNewlines(reg.Render(tags.Content, a.Content))

	dir, err := ensureLogFolder(ctx, env)
	if err != nil {
		return err
	}
	f, err := env.fs().OpenFile(filepath.Join(dir, LogFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	block := fmt.Sprintf("------- %s | order %d ----------------\n%s\n\n",
		env.now().Format(logTimeFormat), order.ID, content)
	if _, err := f.WriteString(block); err != nil {
		return fmt.Errorf("append log file: %w", err)
	}
	return nil
}

// ensureLogFolder returns the log folder, generating and persisting a new
// id when none is stored or its folder is gone.
func ensureLogFolder(ctx context.Context, env *Env) (string, error) {
	if env.Options == nil {
		return "", fmt.Errorf("option store: %w", ErrMissingCollaborator)
	}
	id, err := env.Options.GetOption(ctx, LogIDOption)
	if err != nil {
		return "", fmt.Errorf("get log id: %w", err)
	}
	fs := env.fs()
	if id != "" {
		dir := logFolder(env.Settings.UploadsDir, id)
		if ok, err := afero.DirExists(fs, dir); err == nil && ok {
			return dir, nil
		}
	}

	id = env.newID()
	if err := env.Options.SetOption(ctx, LogIDOption, id); err != nil {
		return "", fmt.Errorf("set log id: %w", err)
	}
	dir := logFolder(env.Settings.UploadsDir, id)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log folder: %w", err)
	}
	logger.FromContext(ctx).Info("Created log folder", "dir", dir)
	return dir, nil
}

func logFolder(uploadsDir, id string) string {
	return filepath.Join(uploadsDir, LogFolderPrefix+id)
}

// LogFilePath returns the current log file path, or "" when no log has
// been written yet.
func LogFilePath(ctx context.Context, opts OptionStore, uploadsDir string) (string, error) {
	id, err := opts.GetOption(ctx, LogIDOption)
	if err != nil {
		return "", fmt.Errorf("get log id: %w", err)
	}
	if id == "" {
		return "", nil
	}
	return filepath.Join(logFolder(uploadsDir, id), LogFileName), nil
}
