package mirrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v68/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/temirov/snapshots/internal/gitrepo"
)

const (
	pushPermissionKeyConstant         = "push"
	trailingSlashConstant             = "/"
	mirrorFieldNameConstant           = "mirror"
	mirrorVerifiedLogMessageConstant  = "snapshot mirror verified"
	baseURLParseErrorTemplateConstant = "invalid GitHub API base URL %q: %w"
	mirrorLookupErrorTemplateConstant = "unable to look up %s: %w"
	mirrorNotFoundTemplateConstant    = "%s does not exist or is not visible to the token"
	mirrorPushDeniedTemplateConstant  = "%s does not grant push access to the token"
	mirrorArchivedTemplateConstant    = "%s is archived"
	missingTokenMessageConstant       = "GitHub token required to verify mirrors"
	defaultGitHubAPIBaseURLConstant   = "https://api.github.com/"
)

// ErrTokenRequired indicates verification was requested without a token.
var ErrTokenRequired = errors.New(missingTokenMessageConstant)

// MirrorProblem enumerates reasons a mirror cannot receive snapshots.
type MirrorProblem string

// Known mirror problems.
const (
	MirrorProblemNotFound   MirrorProblem = "not_found"
	MirrorProblemPushDenied MirrorProblem = "push_denied"
	MirrorProblemArchived   MirrorProblem = "archived"
)

// MirrorError reports a mirror that cannot receive snapshots.
type MirrorError struct {
	Mirror  gitrepo.RepositoryIdentifier
	Problem MirrorProblem
}

// Error describes the problem.
func (mirrorError MirrorError) Error() string {
	switch mirrorError.Problem {
	case MirrorProblemNotFound:
		return fmt.Sprintf(mirrorNotFoundTemplateConstant, mirrorError.Mirror)
	case MirrorProblemArchived:
		return fmt.Sprintf(mirrorArchivedTemplateConstant, mirrorError.Mirror)
	default:
		return fmt.Sprintf(mirrorPushDeniedTemplateConstant, mirrorError.Mirror)
	}
}

// Verifier queries the GitHub REST API for snapshot mirrors.
type Verifier struct {
	logger  *zap.Logger
	baseURL *url.URL
}

// NewVerifier constructs a Verifier. An empty apiBaseURL targets api.github.com.
func NewVerifier(logger *zap.Logger, apiBaseURL string) (*Verifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rawBaseURL := strings.TrimSpace(apiBaseURL)
	if len(rawBaseURL) == 0 {
		rawBaseURL = defaultGitHubAPIBaseURLConstant
	}
	if !strings.HasSuffix(rawBaseURL, trailingSlashConstant) {
		rawBaseURL += trailingSlashConstant
	}
	baseURL, parseError := url.Parse(rawBaseURL)
	if parseError != nil {
		return nil, fmt.Errorf(baseURLParseErrorTemplateConstant, apiBaseURL, parseError)
	}

	return &Verifier{logger: logger, baseURL: baseURL}, nil
}

// VerifyMirrors checks every mirror and reports all problems at once.
func (verifier *Verifier) VerifyMirrors(executionContext context.Context, token string, mirrors []gitrepo.RepositoryIdentifier) error {
	trimmedToken := strings.TrimSpace(token)
	if len(trimmedToken) == 0 {
		return ErrTokenRequired
	}

	client := verifier.newClient(executionContext, trimmedToken)

	var problems []error
	for _, mirror := range mirrors {
		if mirrorError := verifier.verifyMirror(executionContext, client, mirror); mirrorError != nil {
			var typedMirrorError MirrorError
			if !errors.As(mirrorError, &typedMirrorError) {
				return mirrorError
			}
			problems = append(problems, mirrorError)
			continue
		}
		verifier.logger.Debug(mirrorVerifiedLogMessageConstant, zap.String(mirrorFieldNameConstant, mirror.String()))
	}
	return errors.Join(problems...)
}

func (verifier *Verifier) verifyMirror(executionContext context.Context, client *github.Client, mirror gitrepo.RepositoryIdentifier) error {
	repository, response, lookupError := client.Repositories.Get(executionContext, mirror.Owner, mirror.Name)
	if lookupError != nil {
		if response != nil && response.StatusCode == http.StatusNotFound {
			return MirrorError{Mirror: mirror, Problem: MirrorProblemNotFound}
		}
		return fmt.Errorf(mirrorLookupErrorTemplateConstant, mirror, lookupError)
	}

	if repository.GetArchived() {
		return MirrorError{Mirror: mirror, Problem: MirrorProblemArchived}
	}
	if !repository.GetPermissions()[pushPermissionKeyConstant] {
		return MirrorError{Mirror: mirror, Problem: MirrorProblemPushDenied}
	}
	return nil
}

func (verifier *Verifier) newClient(executionContext context.Context, token string) *github.Client {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(executionContext, tokenSource))
	client.BaseURL = verifier.baseURL
	return client
}
