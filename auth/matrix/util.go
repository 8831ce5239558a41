package matrix

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/matrix-org/gomatrix"
)

// fullUserIdRegex matches `@localpart:server_name`.
// Localparts may use the historical (printable ASCII) character set, minus `:`, `@` and `/`.
// The server name is a hostname or IP literal, with an optional port.
var fullUserIdRegex = regexp.MustCompile(`^@[\x21-\x2e\x30-\x39\x3b-\x3f\x41-\x7e]+:(\[[0-9a-fA-F:.]+\]|[a-zA-Z0-9.\-]+)(:[0-9]{1,5})?$`)

func IsErrorWithCode(err error, errorCode string) bool {
	if responseHttpError, couldCast := err.(gomatrix.HTTPError); couldCast {
		if responseError, couldCast := responseHttpError.WrappedError.(gomatrix.RespError); couldCast {
			return responseError.ErrCode == errorCode
		}
	}
	return false
}

// IsNotFoundError tells if the error is a 404 response (with or without an M_NOT_FOUND error code).
//
// Synapse responds to admin API requests for unknown users with a 404 and M_NOT_FOUND,
// but a reverse-proxy in front of it may strip the JSON body.
func IsNotFoundError(err error) bool {
	if IsErrorWithCode(err, ErrorNotFound) {
		return true
	}

	if responseHttpError, couldCast := err.(gomatrix.HTTPError); couldCast {
		return responseHttpError.Code == http.StatusNotFound
	}

	return false
}

// DetermineFullUserId takes a user id and converts it to a full Matrix user id of the given home server (if not already)
func DetermineFullUserId(userIdLocalOrFull, homeserverDomainName string) (string, error) {
	if userIdLocalOrFull == "" {
		return "", fmt.Errorf("Empty user id")
	}

	if strings.HasPrefix(userIdLocalOrFull, "@") {
		// Somewhat looks like a full user id.
		// We don't care if it's on the same homeserver or not.
		return userIdLocalOrFull, nil
	}

	if homeserverDomainName == "" {
		return "", fmt.Errorf("Cannot expand localpart `%s` without a homeserver domain name", userIdLocalOrFull)
	}

	return fmt.Sprintf("@%s:%s", userIdLocalOrFull, homeserverDomainName), nil
}

// IsFullUserIdOfDomain tells if the given full user id is hosted on the given domain
func IsFullUserIdOfDomain(userIdFull string, homeserverDomainName string) bool {
	return strings.HasSuffix(userIdFull, fmt.Sprintf(":%s", homeserverDomainName))
}

// IsValidFullUserId tells if the given string is a well-formed full Matrix user id (`@localpart:server_name`).
func IsValidFullUserId(userIdFull string) bool {
	return len(userIdFull) <= 255 && fullUserIdRegex.MatchString(userIdFull)
}
