package constants

const (
	// CallbackPath is the path the login page redirects back to
	CallbackPath = "/callback"

	// ApplicationName identifies this tool on the Flotiq consent screen
	ApplicationName = "Flotiq Setup CLI"

	// ResponseType requested from the login page
	ResponseType = "code"
)

// Query parameters sent to the login page
const (
	ParamResponseType    = "response_type"
	ParamKeyType         = "key_type"
	ParamApplicationName = "application_name"
	ParamRedirectURI     = "redirect_uri"
)

// Query parameters received on the callback
const (
	ParamAPIKey   = "api_key"
	ParamAPIKeyRW = "api_key_rw"
	ParamStatus   = "status"

	// Older login pages send the keys under these names
	LegacyParamAPIKey   = "key"
	LegacyParamAPIKeyRW = "key_rw"
)

// Env variable names the keys are stored under
const (
	EnvAPIKey       = "FLOTIQ_API_KEY"
	EnvGatsbyAPIKey = "GATSBY_FLOTIQ_API_KEY"
	EnvRWAPIKey     = "FLOTIQ_RW_API_KEY"
)

// Response bodies shown in the browser
const (
	SuccessBody = "Authentication successful! You can close this window."
	FailureBody = "Authentication failed, check CLI output for more information"
	GoneBody    = "Callback already processed"
)
