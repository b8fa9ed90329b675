package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/mythosai/mythos/internal/app"
	"github.com/mythosai/mythos/internal/config"
	"github.com/mythosai/mythos/internal/lesson"
)

var generateFlags struct {
	genre    string
	ageBand  string
	style    string
	media    string
	format   string
	language string
	haiti    bool
	fast     bool
	plain    bool
}

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate a lesson and save it to the history",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&generateFlags.genre, "genre", string(lesson.GenreEducational), "genre: educational, fantasy, sci-fi, folktale, mystery, adventure")
	f.StringVar(&generateFlags.ageBand, "age", string(lesson.AgeChild), "audience: child, teen, adult")
	f.StringVar(&generateFlags.style, "style", string(lesson.StyleDigitalArt), "illustration style")
	f.StringVar(&generateFlags.media, "media", string(lesson.MediaText), "output: text, illustrated, video")
	f.StringVar(&generateFlags.format, "format", "", "video container: mp4 or mov")
	f.StringVar(&generateFlags.language, "lang", "", "output language (default from config)")
	f.BoolVar(&generateFlags.haiti, "haiti", false, "localize examples with Haitian culture references")
	f.BoolVar(&generateFlags.fast, "fast", false, "skip narration for faster results")
	f.BoolVar(&generateFlags.plain, "plain", false, "print raw markdown instead of rendered output")
	rootCmd.AddCommand(generateCmd)
}

// buildRequest validates the generate flags into a domain request.
func buildRequest(topic string) (lesson.Request, error) {
	req := lesson.Request{
		Topic:          topic,
		Genre:          lesson.Genre(generateFlags.genre),
		AgeBand:        lesson.AgeBand(generateFlags.ageBand),
		Style:          lesson.VisualStyle(generateFlags.style),
		Media:          lesson.MediaKind(generateFlags.media),
		VideoContainer: lesson.VideoContainer(generateFlags.format),
		Language:       generateFlags.language,
		HaitianCulture: generateFlags.haiti,
		FastMode:       generateFlags.fast,
	}
	if !req.Genre.Valid() {
		return req, fmt.Errorf("unknown genre %q", generateFlags.genre)
	}
	if !req.AgeBand.Valid() {
		return req, fmt.Errorf("unknown age band %q", generateFlags.ageBand)
	}
	if !req.Style.Valid() {
		return req, fmt.Errorf("unknown style %q", generateFlags.style)
	}
	if !req.Media.Valid() {
		return req, fmt.Errorf("unknown media type %q", generateFlags.media)
	}
	return req, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	req, err := buildRequest(strings.Join(args, " "))
	if err != nil {
		return err
	}

	a, err := app.Setup(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("closing storage", "error", closeErr)
		}
	}()

	item, err := a.Sessions.Start(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("generating lesson: %w", err)
	}

	return printLesson(item)
}

// printLesson renders a stored lesson to stdout.
func printLesson(item lesson.HistoryItem) error {
	body := fmt.Sprintf("# %s\n\n%s", item.Title, item.Content)

	if generateFlags.plain {
		fmt.Println(body)
	} else {
		rendered, err := renderMarkdown(body)
		if err != nil {
			// Fall back to raw markdown rather than failing the command.
			fmt.Println(body)
		} else {
			fmt.Print(rendered)
		}
	}

	printMediaRefs(item.Artifact)
	fmt.Fprintf(os.Stdout, "\nSaved as %s\n", item.ID)
	return nil
}

// printMediaRefs lists the media attached to an artifact. Inline payloads
// are summarized, not dumped.
func printMediaRefs(artifact lesson.Artifact) {
	describe := func(label, ref string) {
		if ref == "" {
			return
		}
		if strings.HasPrefix(ref, "data:") {
			fmt.Printf("%s: inline (%d bytes encoded)\n", label, len(ref))
			return
		}
		fmt.Printf("%s: %s\n", label, ref)
	}

	fmt.Println()
	describe("Image", artifact.ImageRef)
	describe("Audio", artifact.AudioRef)
	if artifact.VideoSimulated {
		fmt.Println("Video: simulated (static image stand-in)")
	} else {
		describe("Video", artifact.VideoRef)
	}
	if artifact.VideoError != "" {
		fmt.Printf("Video error: %s\n", artifact.VideoError)
	}
	if artifact.NextStep != "" {
		fmt.Printf("Next step: %s\n", artifact.NextStep)
	}
}

// renderMarkdown renders markdown for the terminal.
func renderMarkdown(markdown string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(markdown)
}
