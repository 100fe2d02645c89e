package client

// PostRegister asks the running server to re-run the channel handshake.
func PostRegister(baseURL BaseURLFunc) (map[string]any, error) {
	return postJSON(baseURL, "/v1/register", map[string]any{})
}
