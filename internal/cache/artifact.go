package cache

import "fmt"

// DefaultReleasesBaseURL is where k3s release assets are downloaded from.
const DefaultReleasesBaseURL = "https://github.com/k3s-io/k3s/releases/download"

// Kind identifies the role of a release artifact.
type Kind int

const (
	KindBinary Kind = iota
	KindImageBundle
	KindChecksumManifest
)

// String renders the artifact kind for logs and error messages.
func (k Kind) String() string {
	switch k {
	case KindBinary:
		return "binary"
	case KindImageBundle:
		return "image bundle"
	case KindChecksumManifest:
		return "checksum manifest"
	default:
		return "unknown"
	}
}

// Artifact describes one downloadable release file. Artifacts are derived
// deterministically from (version, architecture) and never mutated.
type Artifact struct {
	Kind     Kind
	Filename string
	URL      string
}

// ArtifactSet holds the full artifact derivation for one version. The image
// bundle carries multiple candidates differing only by compression suffix,
// tried strictly in order.
type ArtifactSet struct {
	Binary          Artifact
	Manifest        Artifact
	ImageCandidates []Artifact
}

// DeriveArtifacts builds the artifact set for (version, arch) against the
// given release base URL.
func DeriveArtifacts(baseURL, version, arch string) ArtifactSet {
	binary := BinaryName(arch)
	manifest := fmt.Sprintf("sha256sum-%s.txt", arch)

	candidates := make([]Artifact, 0, 3)
	// Most-compressed first; a plain .tar is the final fallback.
	for _, suffix := range []string{".tar.zst", ".tar.gz", ".tar"} {
		name := fmt.Sprintf("k3s-airgap-images-%s%s", arch, suffix)
		candidates = append(candidates, Artifact{
			Kind:     KindImageBundle,
			Filename: name,
			URL:      assetURL(baseURL, version, name),
		})
	}

	return ArtifactSet{
		Binary: Artifact{
			Kind:     KindBinary,
			Filename: binary,
			URL:      assetURL(baseURL, version, binary),
		},
		Manifest: Artifact{
			Kind:     KindChecksumManifest,
			Filename: manifest,
			URL:      assetURL(baseURL, version, manifest),
		},
		ImageCandidates: candidates,
	}
}

func assetURL(baseURL, version, filename string) string {
	return fmt.Sprintf("%s/%s/%s", baseURL, version, filename)
}
