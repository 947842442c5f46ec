package util

import "testing"

func TestBrowserCommands(t *testing.T) {
	const url = "http://localhost:20261/api/status"

	win := browserCommands("windows", url)
	if len(win) != 2 || win[0][0] != "rundll32" || win[1][0] != "explorer" {
		t.Fatalf("windows commands = %v", win)
	}
	if mac := browserCommands("darwin", url); len(mac) != 1 || mac[0][0] != "open" {
		t.Fatalf("darwin commands = %v", mac)
	}

	linux := browserCommands("linux", url)
	if linux[0][0] != "xdg-open" || len(linux) < 2 {
		t.Fatalf("linux commands = %v", linux)
	}
	for _, c := range append(append(win, linux...), browserCommands("darwin", url)...) {
		if c[len(c)-1] != url {
			t.Fatalf("command %v does not end with url", c)
		}
	}
}
