package gitrepo

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

const (
	httpsSchemeConstant                         = "https"
	defaultGitHubHostConstant                   = "github.com"
	accessTokenUserConstant                     = "x-access-token"
	pathSeparatorConstant                       = "/"
	gitSuffixConstant                           = ".git"
	identifierParseErrorTemplateConstant        = "%q: %s"
	invalidRepositoryIdentifierMessageConstant  = "expected owner/name"
	requiredValueMessageConstant                = "value required"
	repositoryIdentifierDisplayTemplateConstant = "%s/%s"
)

// RepositoryIdentifier names a hosted repository in owner/name form.
type RepositoryIdentifier struct {
	Owner string
	Name  string
}

// String renders the identifier as owner/name.
func (identifier RepositoryIdentifier) String() string {
	return fmt.Sprintf(repositoryIdentifierDisplayTemplateConstant, identifier.Owner, identifier.Name)
}

// Basename returns the directory name a clone of the repository receives.
func (identifier RepositoryIdentifier) Basename() string {
	return identifier.Name
}

// RepositoryIdentifierParseError indicates an identifier string could not be parsed.
type RepositoryIdentifierParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RepositoryIdentifierParseError) Error() string {
	return fmt.Sprintf(identifierParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// ParseRepositoryIdentifier converts an owner/name string into a RepositoryIdentifier.
// A trailing .git suffix is accepted and dropped.
func ParseRepositoryIdentifier(identifier string) (RepositoryIdentifier, error) {
	trimmedIdentifier := strings.TrimSpace(identifier)
	if len(trimmedIdentifier) == 0 {
		return RepositoryIdentifier{}, RepositoryIdentifierParseError{Input: identifier, Message: requiredValueMessageConstant}
	}

	segments := strings.Split(strings.TrimSuffix(trimmedIdentifier, gitSuffixConstant), pathSeparatorConstant)
	if len(segments) != 2 {
		return RepositoryIdentifier{}, RepositoryIdentifierParseError{Input: identifier, Message: invalidRepositoryIdentifierMessageConstant}
	}

	owner := strings.TrimSpace(segments[0])
	name := strings.TrimSpace(segments[1])
	if len(owner) == 0 || len(name) == 0 || name == "." || name == ".." {
		return RepositoryIdentifier{}, RepositoryIdentifierParseError{Input: identifier, Message: invalidRepositoryIdentifierMessageConstant}
	}

	return RepositoryIdentifier{Owner: owner, Name: name}, nil
}

// CloneURL builds the https clone URL for a repository. A non-empty token is
// embedded as x-access-token credentials; an empty host means github.com.
func CloneURL(host string, identifier RepositoryIdentifier, token string) string {
	resolvedHost := strings.TrimSpace(host)
	if len(resolvedHost) == 0 {
		resolvedHost = defaultGitHubHostConstant
	}

	cloneURL := url.URL{
		Scheme: httpsSchemeConstant,
		Host:   resolvedHost,
		Path:   path.Join(pathSeparatorConstant, identifier.Owner, identifier.Name+gitSuffixConstant),
	}
	if trimmedToken := strings.TrimSpace(token); len(trimmedToken) > 0 {
		cloneURL.User = url.UserPassword(accessTokenUserConstant, trimmedToken)
	}
	return cloneURL.String()
}
