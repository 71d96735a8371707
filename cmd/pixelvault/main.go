// PixelVault - Hide encrypted files inside PNG and BMP images.
//
// Usage:
//
//	pixelvault hide -medium <img> -secret <file> [-o <out.png>] [options]
//	pixelvault extract -medium <img> [-o <dir|file>] [options]
//	pixelvault inspect -medium <img>
//	pixelvault cover -o <file> [options]
//	pixelvault serve [-port 8080]
//	pixelvault init
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/PixelVault/clients/server"
	"github.com/xob0t/PixelVault/pkg/config"
	"github.com/xob0t/PixelVault/pkg/crypt"
	"github.com/xob0t/PixelVault/pkg/generator"
	"github.com/xob0t/PixelVault/pkg/stego"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "hide":
		err = runHide(os.Args[2:])
	case "extract":
		err = runExtract(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "cover":
		err = runCover(os.Args[2:])
	case "serve":
		err = server.RunServe(os.Args[2:])
	case "init":
		err = runInit(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}
	if err != nil {
		fatal(err)
	}
}

// common holds the flags shared by hide and extract.
type common struct {
	medium     string
	output     string
	password   string
	encryption string
	configPath string
	verbose    bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.medium, "medium", "", "Carrier image (.png or .bmp)")
	fs.StringVar(&c.medium, "m", "", "Carrier image (.png or .bmp)")
	fs.StringVar(&c.output, "o", "", "Output path")
	fs.StringVar(&c.output, "output", "", "Output path")
	fs.StringVar(&c.password, "password", "", "Password (default: $"+config.EnvPassword+" or prompt)")
	fs.StringVar(&c.encryption, "encryption", "", "aes or none (default: from config)")
	fs.StringVar(&c.configPath, "config", "", "Config file (default: $"+config.EnvConfig+")")
	fs.BoolVar(&c.verbose, "v", false, "Log field writes and reads")
}

// load reads the config, applies flag overrides and builds the logger.
func (c *common) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	if c.encryption != "" {
		cfg.Encryption = c.encryption
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	log := cfg.NewLogger(os.Stderr)
	if c.verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	for _, w := range cfg.Warnings() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	return cfg, log, nil
}

func runHide(args []string) error {
	fs := flag.NewFlagSet("hide", flag.ExitOnError)
	var (
		c      common
		secret string
		dryRun bool
	)
	c.register(fs)
	fs.StringVar(&secret, "secret", "", "File to hide")
	fs.StringVar(&secret, "s", "", "File to hide")
	fs.BoolVar(&dryRun, "dry-run", false, "Report whether the secret fits, write nothing")
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	if c.medium == "" || secret == "" {
		return fmt.Errorf("both -medium and -secret are required")
	}
	cfg, log, err := c.load()
	if err != nil {
		return err
	}

	carrier, err := os.ReadFile(c.medium)
	if err != nil {
		return fmt.Errorf("read medium: %w", err)
	}
	data, err := os.ReadFile(secret)
	if err != nil {
		return fmt.Errorf("read secret: %w", err)
	}

	if dryRun {
		return reportFit(carrier, len(data), cfg.Encryption)
	}

	output := c.output
	if output == "" {
		output = hiddenOutputPath(c.medium, cfg.OutputFormat)
	}
	outExt := stego.ExtensionOf(output)

	password, err := resolvePassword(c.password, true)
	if err != nil {
		return err
	}
	codec, err := cfg.Codec(log)
	if err != nil {
		return err
	}

	fmt.Printf("Hiding: %s (%s) in %s\n", filepath.Base(secret), humanize.Bytes(uint64(len(data))), c.medium)
	out, err := codec.Hide(carrier, data, stego.ExtensionOf(secret), password, outExt)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	log.WithFields(logrus.Fields{"output": output, "bytes": len(out)}).Info("secret hidden")
	fmt.Printf("Done: %s (%s)\n", output, humanize.Bytes(uint64(len(out))))
	return nil
}

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	var c common
	c.register(fs)
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	if c.medium == "" {
		return fmt.Errorf("-medium is required")
	}
	cfg, log, err := c.load()
	if err != nil {
		return err
	}

	carrier, err := os.ReadFile(c.medium)
	if err != nil {
		return fmt.Errorf("read medium: %w", err)
	}
	password, err := resolvePassword(c.password, false)
	if err != nil {
		return err
	}
	codec, err := cfg.Codec(log)
	if err != nil {
		return err
	}

	secret, err := codec.Extract(carrier, password)
	if err != nil {
		return err
	}

	output := extractOutputPath(c.output, c.medium, secret.Extension)
	if err := os.WriteFile(output, secret.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	log.WithFields(logrus.Fields{"output": output, "extension": secret.Extension}).Info("secret extracted")
	fmt.Printf("Done: %s (%s)\n", output, humanize.Bytes(uint64(len(secret.Data))))
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	var path string
	fs.StringVar(&path, "medium", "", "Carrier image (.png or .bmp)")
	fs.StringVar(&path, "m", "", "Carrier image (.png or .bmp)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if path == "" && fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if path == "" {
		return fmt.Errorf("-medium is required")
	}

	carrier, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read medium: %w", err)
	}
	info, err := stego.Inspect(carrier)
	if err != nil {
		return err
	}
	fmt.Print(formatInfo(info))
	return nil
}

func runCover(args []string) error {
	fs := flag.NewFlagSet("cover", flag.ExitOnError)
	var (
		output string
		cfg    generator.Config
		pat    string
	)
	fs.StringVar(&output, "o", "", "Output file path (.png or .bmp)")
	fs.StringVar(&output, "output", "", "Output file path (.png or .bmp)")
	fs.IntVar(&cfg.Width, "w", 1280, "Width in pixels")
	fs.IntVar(&cfg.Width, "width", 1280, "Width in pixels")
	fs.IntVar(&cfg.Height, "h", 720, "Height in pixels")
	fs.IntVar(&cfg.Height, "height", 720, "Height in pixels")
	fs.StringVar(&cfg.Color, "color", "random", "Background color: hex or 'random'")
	fs.StringVar(&pat, "pattern", string(generator.Noise), "solid or noise")
	fs.StringVar(&cfg.Text, "text", "", "Caption drawn in the centre")
	fs.StringVar(&cfg.Font, "font", "", "TTF font for the caption")
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	if output == "" {
		return fmt.Errorf("output file is required (-o)")
	}
	cfg.Pattern = generator.Pattern(pat)

	fmt.Printf("Generating: %s\n", output)
	if err := generator.Generate(output, cfg); err != nil {
		return err
	}
	if data, err := os.ReadFile(output); err == nil {
		if info, err := stego.Inspect(data); err == nil {
			fmt.Printf("Done: %s, hides up to %s\n", output, humanize.Bytes(uint64(min(info.Budget, info.PixelBytes))))
			return nil
		}
	}
	fmt.Printf("Done: %s\n", output)
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var (
		path  string
		force bool
	)
	fs.StringVar(&path, "config", config.DefaultPath, "Output path for the sample config")
	fs.BoolVar(&force, "force", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.WriteSample(path, force); err != nil {
		return err
	}
	fmt.Printf("Created: %s\n", path)
	fmt.Printf("Run: pixelvault hide -config %s -medium cover.png -secret notes.txt\n", path)
	return nil
}

// reportFit prints the carrier's budget against the encrypted size of an
// n-byte secret.
func reportFit(carrier []byte, n int, encryption string) error {
	info, err := stego.Inspect(carrier)
	if err != nil {
		return err
	}
	mode, err := crypt.ParseMode(encryption)
	if err != nil {
		return err
	}
	need := encryptedSize(n, mode)

	fmt.Print(formatInfo(info))
	fmt.Printf("Encrypted secret: %s\n", humanize.Bytes(uint64(need)))
	switch {
	case need > info.Budget:
		fmt.Println("Result: too large, choose a bigger medium")
	case need > info.PixelBytes:
		fmt.Println("Result: within budget but overruns the pixel grid")
	default:
		fmt.Println("Result: fits")
	}
	return nil
}

// encryptedSize is the payload length for an n-byte secret.
func encryptedSize(n int, mode crypt.Mode) int {
	if mode == crypt.ModeNone {
		return n
	}
	return (n/crypt.BlockSize + 1) * crypt.BlockSize
}

func formatInfo(info *stego.MediumInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Format:     %s\n", info.Format)
	fmt.Fprintf(&b, "Dimensions: %dx%d (%s pixels)\n", info.Width, info.Height, humanize.Comma(int64(info.Width*info.Height)))
	fmt.Fprintf(&b, "File size:  %s\n", humanize.Bytes(uint64(info.EncodedLen)))
	fmt.Fprintf(&b, "Budget:     %s\n", humanize.Bytes(uint64(info.Budget)))
	fmt.Fprintf(&b, "Pixel room: %s\n", humanize.Bytes(uint64(info.PixelBytes)))
	return b.String()
}

// hiddenOutputPath derives "<name>_hidden.<format>" next to the medium.
func hiddenOutputPath(medium, format string) string {
	base := strings.TrimSuffix(medium, filepath.Ext(medium))
	return base + "_hidden." + strings.TrimPrefix(format, ".")
}

// extractOutputPath resolves -o for extract. An existing directory, or no
// -o at all, gets "<medium name>.<ext>" inside it.
func extractOutputPath(output, medium, ext string) string {
	name := strings.TrimSuffix(filepath.Base(medium), filepath.Ext(medium))
	if ext != "" {
		name += "." + ext
	}
	if output == "" {
		return name
	}
	if st, err := os.Stat(output); err == nil && st.IsDir() {
		return filepath.Join(output, name)
	}
	return output
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`PixelVault - Hide encrypted files in PNG and BMP images (Pure Go)

USAGE:
    pixelvault hide -medium <img> -secret <file> [-o <out.png|out.bmp>] [options]
    pixelvault extract -medium <img> [-o <dir|file>] [options]
    pixelvault inspect -medium <img>
    pixelvault cover -o <file> [options]
    pixelvault serve [-port 8080]
    pixelvault init [-config pixelvault.yaml]

HIDE / EXTRACT:
    -m, -medium <path>     Carrier image (.png or .bmp)
    -s, -secret <path>     File to hide (hide only)
    -o, -output <path>     Output image (hide) or file/directory (extract)
    -password <pw>         Password (default: $PIXELVAULT_PASSWORD or prompt)
    -encryption <mode>     aes (default) or none
    -config <path>         YAML settings (default: $PIXELVAULT_CONFIG)
    -dry-run               Check capacity only (hide only)
    -v                     Debug logging

COVER:
    -o, -output <path>     Output file (.png or .bmp)
    -color <hex>           Background color or 'random' (default: random)
    -pattern <p>           noise (default) or solid
    -w, -width <px>        Width in pixels (default: 1280)
    -h, -height <px>       Height in pixels (default: 720)
    -text <s>              Caption
    -font <path>           TTF font for the caption

UI SERVER:
    pixelvault serve [-port 8080]       Start the web UI

EXAMPLES:
    pixelvault init
    pixelvault cover -o cover.png -w 1920 -h 1080
    pixelvault hide -m cover.png -s notes.pdf -o vault.png
    pixelvault extract -m vault.png -o ./out
    PIXELVAULT_PASSWORD=secret pixelvault extract -m vault.png
`)
}
