// Package identity implements the single, canonical Stable Identifier
// resolver. The distilled source this engine's ancestor was built from
// had two drifted implementations of this rule (one yielding
// "project_service", the other just "service") — every caller in this
// module goes through Resolve so that bug class cannot recur.
package identity

import (
	"strings"

	"github.com/containerwarden/warden/internal/domain"
)

const (
	labelMonitoringID   = "monitoring.id"
	labelComposeProject = "com.docker.compose.project"
	labelComposeService = "com.docker.compose.service"
)

// Resolve computes the stable identifier for a snapshot deterministically
// from its labels and name, with priority:
//  1. label monitoring.id, if present and non-empty
//  2. "${compose.project}_${compose.service}", if both compose labels present
//  3. container name
func Resolve(snap domain.Snapshot) string {
	return ResolveFromLabelsAndName(snap.Labels, snap.Name)
}

// ResolveFromLabelsAndName is the pure core of Resolve, for callers that
// hold only a label map and a container name rather than a full
// Snapshot.
func ResolveFromLabelsAndName(labels map[string]string, name string) string {
	if id := strings.TrimSpace(labels[labelMonitoringID]); id != "" {
		return id
	}

	project := strings.TrimSpace(labels[labelComposeProject])
	service := strings.TrimSpace(labels[labelComposeService])
	if project != "" && service != "" {
		return project + "_" + service
	}

	return strings.TrimPrefix(name, "/")
}
