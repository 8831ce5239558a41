package userauth

// The types below implement the request/response format of [matrix-synapse-rest-auth](https://github.com/kamax-io/matrix-synapse-rest-auth),
// so that homeservers (and things like matrix-corporal) which already know how to talk to such a REST endpoint
// can delegate credential checks to us.

type RestAuthRequest struct {
	User RestAuthRequestUser `json:"user"`
}

type RestAuthRequestUser struct {
	Id       string `json:"id"`
	Password string `json:"password"`
}

func NewRestAuthRequest(userId, password string) RestAuthRequest {
	return RestAuthRequest{
		User: RestAuthRequestUser{
			Id:       userId,
			Password: password,
		},
	}
}

type RestAuthResponse struct {
	Auth RestAuthResponseAuth `json:"auth"`
}

type RestAuthResponseAuth struct {
	Success  bool                         `json:"success"`
	MatrixID string                       `json:"mxid,omitempty"`
	Profile  *RestAuthResponseAuthProfile `json:"profile,omitempty"`
}

type RestAuthResponseAuthProfile struct {
	DisplayName string `json:"display_name,omitempty"`
}

// NewUnsuccessfulRestAuthResponse is the response for all failed authentication attempts,
// regardless of the reason for the failure.
func NewUnsuccessfulRestAuthResponse() RestAuthResponse {
	return RestAuthResponse{
		Auth: RestAuthResponseAuth{
			Success: false,
		},
	}
}

func NewSuccessfulRestAuthResponse(userId string) RestAuthResponse {
	return RestAuthResponse{
		Auth: RestAuthResponseAuth{
			Success:  true,
			MatrixID: userId,
			Profile:  &RestAuthResponseAuthProfile{},
		},
	}
}
