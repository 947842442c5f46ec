package util

import (
	"errors"
	"os/exec"
	"runtime"
)

// browserCommands 按平台返回依次尝试的打开命令
func browserCommands(goos, url string) [][]string {
	switch goos {
	case "windows":
		// rundll32 在 Windows 7 上比 cmd /c start 稳定
		return [][]string{
			{"rundll32", "url.dll,FileProtocolHandler", url},
			{"explorer", url},
		}
	case "darwin":
		return [][]string{{"open", url}}
	default:
		cmds := [][]string{{"xdg-open", url}}
		for _, b := range []string{"google-chrome", "firefox", "chromium-browser", "sensible-browser"} {
			cmds = append(cmds, []string{b, url})
		}
		return cmds
	}
}

// OpenBrowser 只尝试平台首选方式
func OpenBrowser(url string) error {
	first := browserCommands(runtime.GOOS, url)[0]
	return exec.Command(first[0], first[1:]...).Start()
}

// OpenBrowserWithFallback 首选方式失败后依次尝试备选命令，返回首个错误
func OpenBrowserWithFallback(url string) error {
	var firstErr error
	for _, c := range browserCommands(runtime.GOOS, url) {
		err := exec.Command(c[0], c[1:]...).Start()
		if err == nil {
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = errors.New("no browser command available")
	}
	return firstErr
}
