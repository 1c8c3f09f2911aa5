package photo

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// IsDeletable возвращает true, если файл можно предлагать к удалению.
func (i *Image) IsDeletable() bool {
	return i.path != "" && i.status != StatusOpenFailed
}

// DeleteFile удаляет файл изображения.
func (i *Image) DeleteFile() error {
	if err := os.Remove(i.path); err != nil {
		return fmt.Errorf("не удалось удалить %s: %w", i.path, err)
	}
	return nil
}

// OpenFolder открывает директорию файла в файловом менеджере.
func (i *Image) OpenFolder() error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", "/select,"+i.path)
	case "darwin":
		cmd = exec.Command("open", "-R", i.path)
	default:
		cmd = exec.Command("xdg-open", filepath.Dir(i.path))
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("не удалось открыть директорию %s: %w", filepath.Dir(i.path), err)
	}

	// Не ждём закрытия файлового менеджера
	go func() { _ = cmd.Wait() }()
	return nil
}
