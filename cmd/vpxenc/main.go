// Package main provides the CLI entry point for vpxenc.
package main

import (
	"fmt"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/vpxenc/pkg/adapters/libvpx"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %v", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "vpxenc",
		Usage:   l10n.T("Encode raw video to VP8/VP9 with libvpx"),
		Version: version,
		Description: l10n.T("vpxenc encodes raw frames, a synthetic test pattern or a browser screencast " +
			"to VP8/VP9 and writes IVF, MP4 or RTP."),
		Flags: globalFlags(),
		Commands: []*cli.Command{
			{
				Name:      "encode",
				Usage:     l10n.T("Encode a raw file or a test pattern"),
				ArgsUsage: "[input.yuv]",
				Flags:     append(encodeFlags(), sourceFlags()...),
				Action:    runEncode,
			},
			{
				Name:      "capture",
				Usage:     l10n.T("Encode a screencast of a web page"),
				ArgsUsage: "<url>",
				Flags:     append(encodeFlags(), captureFlags()...),
				Action:    runCapture,
			},
			{
				Name:      "probe",
				Usage:     l10n.T("Show codec and frame information of an IVF or MP4 file"),
				ArgsUsage: "<file>",
				Action:    runProbe,
			},
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, l10n.F("vpxenc version %s", version))
					if v := libvpx.Version(); v != "" {
						fmt.Fprintln(c.App.Writer, l10n.F("libvpx %s", v))
					} else {
						fmt.Fprintln(c.App.Writer, l10n.T("libvpx not available (built without cgo)"))
					}
					return nil
				},
			},
		},
	}
}
