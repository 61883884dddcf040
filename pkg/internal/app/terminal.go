package app

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/glazor-app/glazor-cli/pkg/internal/models"
	"github.com/glazor-app/glazor-cli/pkg/internal/services"
)

// Terminal renders views as colored text and binds numbered feed entries to
// post ids, so rendering stays a data transform and interaction wiring lives
// here.
type Terminal struct {
	out io.Writer

	mu     sync.Mutex
	binder []string
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) Notify(message string) {
	fmt.Fprintln(t.out, color.YellowString("! %s", message))
}

func (t *Terminal) SetBusy(control, label string) {
	fmt.Fprintln(t.out, color.HiBlackString("[%s] %s", control, label))
}

func (t *Terminal) ClearBusy(control string) {
	// Terminal controls cannot be disabled; a finished busy label just stops
	// being printed.
}

func (t *Terminal) ShowAuth() {
	t.mu.Lock()
	t.binder = nil
	t.mu.Unlock()

	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, color.CyanString("You are logged out."))
	fmt.Fprintln(t.out, "Use: login <phone> <password>")
	fmt.Fprintln(t.out, "     register <name> <phone> <password> [avatar-file]")
}

func (t *Terminal) ShowFeed(user models.User, feed services.FeedView, stale bool) {
	t.mu.Lock()
	t.binder = make([]string, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		t.binder = append(t.binder, entry.PostID)
	}
	t.mu.Unlock()

	fmt.Fprintln(t.out)
	header := fmt.Sprintf("Feed — %s", user.Name)
	if stale {
		header += " (stale)"
	}
	fmt.Fprintln(t.out, color.New(color.FgCyan, color.Bold).Sprint(header))
	fmt.Fprintln(t.out, color.HiBlackString("  %s", user.AvatarOrDefault()))

	if len(feed.Entries) == 0 {
		fmt.Fprintln(t.out, color.HiBlackString("  %s", feed.Placeholder))
		return
	}

	for i, entry := range feed.Entries {
		heart := color.HiBlackString("♡")
		if entry.Liked {
			heart = color.RedString("♥")
		}
		fmt.Fprintf(t.out, "[%d] %s\n", i+1, color.New(color.Bold).Sprint(entry.AuthorName))
		fmt.Fprintf(t.out, "    %s\n", entry.PhotoURL)
		fmt.Fprintf(t.out, "    %s %d\n", heart, entry.Likes)
		if len(entry.Comments) == 0 {
			fmt.Fprintf(t.out, "    %s\n", color.HiBlackString(entry.CommentsPlaceholder))
			continue
		}
		for _, comment := range entry.Comments {
			fmt.Fprintf(t.out, "    %s %s\n", color.New(color.Bold).Sprintf("%s:", comment.Author), comment.Text)
		}
	}
}

// PostID resolves a displayed 1-based entry number to its post id.
func (t *Terminal) PostID(index int) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 1 || index > len(t.binder) {
		return "", false
	}
	return t.binder[index-1], true
}

// Run reads commands until quit or EOF. A like keeps the loop responsive
// while its request is in flight; everything else completes before the next
// prompt.
func (t *Terminal) Run(ctrl *Controller, in io.Reader) {
	scanner := bufio.NewScanner(in)
	t.printHelp()

	for {
		fmt.Fprint(t.out, color.GreenString("glazor> "))
		if !scanner.Scan() {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			t.printHelp()
		case "login":
			if len(fields) != 3 {
				t.Notify("Usage: login <phone> <password>")
				continue
			}
			ctrl.Login(fields[1], fields[2])
		case "register":
			if len(fields) != 4 && len(fields) != 5 {
				t.Notify("Usage: register <name> <phone> <password> [avatar-file]")
				continue
			}
			avatar := ""
			if len(fields) == 5 {
				avatar = fields[4]
			}
			ctrl.Register(fields[1], fields[2], fields[3], avatar)
		case "post":
			if len(fields) != 2 {
				t.Notify("Usage: post <photo-file>")
				continue
			}
			ctrl.CreatePost(fields[1])
		case "like":
			postID, ok := t.resolveEntry(fields, 2)
			if !ok {
				continue
			}
			ctrl.ToggleLike(postID)
		case "comment":
			if len(fields) < 3 {
				t.Notify("Usage: comment <n> <text>")
				continue
			}
			postID, ok := t.resolveEntry(fields[:2], 2)
			if !ok {
				continue
			}
			ctrl.Comment(postID, strings.Join(fields[2:], " "))
		case "refresh":
			ctrl.ReloadFeed()
		case "logout":
			ctrl.Logout()
		case "quit", "exit":
			return
		default:
			t.Notify(fmt.Sprintf("Unknown command %q, try help.", fields[0]))
		}
	}
}

func (t *Terminal) resolveEntry(fields []string, want int) (string, bool) {
	if len(fields) != want {
		t.Notify(fmt.Sprintf("Usage: %s <n>", fields[0]))
		return "", false
	}

	index, err := strconv.Atoi(fields[1])
	if err != nil {
		t.Notify("The post number must be a number.")
		return "", false
	}

	postID, ok := t.PostID(index)
	if !ok {
		t.Notify("No such post number in the current feed.")
		return "", false
	}
	return postID, true
}

func (t *Terminal) printHelp() {
	fmt.Fprintln(t.out, "Commands:")
	fmt.Fprintln(t.out, "  login <phone> <password>")
	fmt.Fprintln(t.out, "  register <name> <phone> <password> [avatar-file]")
	fmt.Fprintln(t.out, "  post <photo-file>")
	fmt.Fprintln(t.out, "  like <n>        comment <n> <text>")
	fmt.Fprintln(t.out, "  refresh         logout          quit")
}
