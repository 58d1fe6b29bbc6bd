// Package registry builds and validates image references and understands the
// registry hosts a release can push to.
package registry

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/docker/distribution/reference"
)

var (
	// ErrInvalidReference is returned for names the registry would reject.
	ErrInvalidReference = errors.New("invalid image reference")
	// ErrInvalidToken is returned for malformed registry auth tokens.
	ErrInvalidToken = errors.New("invalid registry auth token")
)

var ecrHostPattern = regexp.MustCompile(`^([0-9]{12})\.dkr\.ecr(?:-fips)?\.([a-z0-9-]+)\.amazonaws\.com(?:\.cn)?$`)

// ECRHost is a parsed ECR private registry host.
type ECRHost struct {
	AccountID string
	Region    string
}

// LocalRef is the tag the image is built under before it is retagged for the registry.
func LocalRef(image, tag string) (string, error) {
	return buildRef("", image, tag)
}

// ImageRef returns <registry>/<image>:<tag>, validated and normalized.
func ImageRef(registryHost, image, tag string) (string, error) {
	host := NormalizeHost(registryHost)
	if host == "" {
		return "", fmt.Errorf("%w: registry is required", ErrInvalidReference)
	}
	return buildRef(host, image, tag)
}

func buildRef(host, image, tag string) (string, error) {
	image = strings.Trim(strings.TrimSpace(image), "/")
	if image == "" {
		return "", fmt.Errorf("%w: image name is required", ErrInvalidReference)
	}
	name := image
	if host != "" {
		name = host + "/" + image
	}
	named, err := reference.ParseNormalizedNamed(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidReference, name, err)
	}
	tagged, err := reference.WithTag(named, tag)
	if err != nil {
		return "", fmt.Errorf("%w: tag %q: %v", ErrInvalidReference, tag, err)
	}
	return reference.FamiliarString(tagged), nil
}

// RepositoryPath returns the repository component of a reference (no host, no tag).
func RepositoryPath(ref string) (string, error) {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidReference, ref, err)
	}
	return reference.Path(named), nil
}

// NormalizeHost strips scheme and trailing slashes from a registry address.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimRight(host, "/")
}

// ParseECRHost recognises <account>.dkr.ecr.<region>.amazonaws.com.
func ParseECRHost(host string) (ECRHost, bool) {
	m := ecrHostPattern.FindStringSubmatch(NormalizeHost(host))
	if m == nil {
		return ECRHost{}, false
	}
	return ECRHost{AccountID: m[1], Region: m[2]}, true
}

// IsECR reports whether host is an ECR private registry.
func IsECR(host string) bool {
	_, ok := ParseECRHost(host)
	return ok
}

// ECRHostFor returns the registry host for an account and region.
func ECRHostFor(accountID, region string) string {
	host := fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com", accountID, region)
	if strings.HasPrefix(region, "cn-") {
		host += ".cn"
	}
	return host
}

// DecodeAuthToken splits a base64 "user:password" registry token.
func DecodeAuthToken(token string) (user, password string, err error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	user, password, ok := strings.Cut(string(raw), ":")
	if !ok || user == "" || password == "" {
		return "", "", fmt.Errorf("%w: expected user:password", ErrInvalidToken)
	}
	return user, password, nil
}
