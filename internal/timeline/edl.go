package timeline

import (
	"fmt"
	"io"
	"math"
	"strings"

	"broll/internal/allocate"
)

// GenerateEDL renders the cut list as a CMX3600 EDL, one video event per
// clip. Record times are the clips' timeline positions.
func GenerateEDL(cl allocate.CutList, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}
	dropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	tc := func(sec float64) string { return timecode(sec, fps) }

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if dropFrame {
		lines = append(lines, "FCM: DROP FRAME")
		tc = func(sec float64) string { return dropFrameTimecode(sec, fps) }
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	event := 0
	for _, cut := range cl.Cuts {
		for _, clip := range cut.Clips {
			event++
			lines = append(lines,
				fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", event, reelName(event), "V",
					tc(clip.ClipStart), tc(clip.ClipEnd),
					tc(clip.TimelinePos), tc(clip.TimelinePos+clip.Duration)),
				fmt.Sprintf("* FROM CLIP NAME:  %s", clip.VideoName),
				fmt.Sprintf("* MEDIA PATH:  %s", clip.VideoPath),
				fmt.Sprintf("* COMMENT: MARKER %d %s [%s]", cut.Index, cut.Keyword, clip.Source),
			)
		}
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// WriteEDL writes GenerateEDL output to w.
func WriteEDL(w io.Writer, cl allocate.CutList, title string, frameRate float64) error {
	_, err := io.WriteString(w, GenerateEDL(cl, title, frameRate))
	return err
}

// SaveEDL writes the EDL to path atomically.
func SaveEDL(path string, cl allocate.CutList, title string, frameRate float64) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return WriteEDL(w, cl, title, frameRate)
	})
}

func reelName(event int) string {
	return fmt.Sprintf("BR%04d", event)
}

func timecode(sec float64, fps int) string {
	totalFrames := int(math.Round(sec * float64(fps)))
	if totalFrames < 0 {
		totalFrames = 0
	}
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	return fmt.Sprintf("%02d:%02d:%02d:%02d", totalSeconds/3600, totalSeconds/60%60, totalSeconds%60, frames)
}

// dropFrameTimecode labels NTSC frames (nominal 30 or 60) in SMPTE drop-frame
// notation: frame numbers 0 and 1 (0-3 at 60) are skipped at the start of
// every minute except each tenth, and the frame field is separated by ';'.
func dropFrameTimecode(sec float64, nominal int) string {
	drop := nominal / 15
	actual := float64(nominal) * 1000 / 1001
	totalFrames := int(math.Round(sec * actual))
	if totalFrames < 0 {
		totalFrames = 0
	}

	perMinute := nominal*60 - drop
	perTenMinutes := nominal*600 - 9*drop
	tens, rem := totalFrames/perTenMinutes, totalFrames%perTenMinutes
	totalFrames += 9 * drop * tens
	if rem > drop {
		totalFrames += drop * ((rem - drop) / perMinute)
	}

	frames := totalFrames % nominal
	totalSeconds := totalFrames / nominal
	return fmt.Sprintf("%02d:%02d:%02d;%02d", totalSeconds/3600, totalSeconds/60%60, totalSeconds%60, frames)
}
