package export

import (
	"fmt"
	"sort"

	"github.com/cutroom/cutroom-agent/internal/media"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// PathResolver maps a clip's source id to the media file on disk.
// Satisfied by the library service.
type PathResolver interface {
	AssetPath(id string) (string, bool)
}

// Flatten orders timeline clips into the final program sequence: by
// start time, ties broken by track (topmost first) then id.
func Flatten(clips []timeline.Clip) []timeline.Clip {
	out := make([]timeline.Clip, len(clips))
	copy(out, clips)
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		if out[i].Track != out[j].Track {
			return out[i].Track < out[j].Track
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Resolve turns timeline clips into export events. Clips whose source
// cannot be resolved are skipped and reported by id.
func Resolve(clips []timeline.Clip, paths PathResolver) ([]ResolvedClip, []string) {
	var resolved []ResolvedClip
	var unresolved []string

	for _, clip := range Flatten(clips) {
		path, ok := paths.AssetPath(clip.SourceID)
		if !ok {
			unresolved = append(unresolved, clip.ID)
			continue
		}
		resolved = append(resolved, ResolvedClip{
			Name:      clip.Name,
			MediaPath: path,
			SourceIn:  clip.InPoint,
			SourceOut: clip.OutPoint,
		})
	}
	return resolved, unresolved
}

// BuildRenderPlan turns timeline clips into a media render plan using the
// same flattening order as the EDL.
func BuildRenderPlan(clips []timeline.Clip, paths PathResolver) (media.RenderPlan, error) {
	resolved, unresolved := Resolve(clips, paths)
	if len(resolved) == 0 {
		return media.RenderPlan{}, fmt.Errorf("no renderable clips on the timeline")
	}
	if len(unresolved) > 0 {
		return media.RenderPlan{}, fmt.Errorf("%d clips reference missing assets", len(unresolved))
	}

	plan := media.RenderPlan{Clips: make([]media.RenderClip, 0, len(resolved))}
	for _, clip := range resolved {
		plan.Clips = append(plan.Clips, media.RenderClip{
			SourcePath: clip.MediaPath,
			InPoint:    clip.SourceIn,
			OutPoint:   clip.SourceOut,
		})
	}
	return plan, nil
}
