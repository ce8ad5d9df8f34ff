package cmd

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/pb33f/harsize/tui"
)

const pb33fASCII = `@@@@@@@   @@@@@@@   @@@@@@   @@@@@@   @@@@@@@@
@@@@@@@@  @@@@@@@@  @@@@@@@  @@@@@@@  @@@@@@@@
@@!  @@@  @@!  @@@      @@@      @@@  @@!
!@!  @!@  !@   @!@      @!@      @!@  !@!
@!@@!@!   @!@!@!@   @!@!!@   @!@!!@   @!!!:!
!!@!!!    !!!@!!!!  !!@!@!   !!@!@!   !!!!!:
!!:       !!:  !!!      !!:      !!:  !!:
:!:       :!:  !:!      :!:      :!:  :!:
 ::        :: ::::  :: ::::  :: ::::   ::
 :        :: : ::    : : :    : : :    :      `

// RenderBanner returns the styled pb33f banner for the help screen
func RenderBanner() string {
	bannerStyle := lipgloss.NewStyle().
		Foreground(tui.RGBPink).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(tui.RGBBlue).
		Italic(true)

	containerStyle := lipgloss.NewStyle().
		Align(lipgloss.Left).
		MarginBottom(1)

	banner := bannerStyle.Render(pb33fASCII)
	subtitle := subtitleStyle.Render("harsize - page weight and load time reports")

	return containerStyle.Render(banner + "\n" + subtitle)
}
