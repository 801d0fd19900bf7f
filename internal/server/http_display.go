package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health          - Health check")
	fmt.Println("  GET  /stats           - Server statistics")
	fmt.Println("  GET  /roles           - List catalog roles")
	fmt.Println("  POST /analyze         - Analyze resume text against a role")
	fmt.Println("  POST /analyze/upload  - Analyze an uploaded resume (pdf, docx, html, txt, md)")
	fmt.Println("  POST /recommend       - Recommend the best fitting role")
	fmt.Printf("Catalog: %d roles loaded\n", s.Engine.Catalog().Len())
}

func (s *Server) displayAuthInfo() {
	if n := s.APIKeys.Len(); n > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", n)
		fmt.Println("Send 'X-API-Key: <key>' or 'Authorization: Bearer <key>' with requests to /roles, /analyze and /recommend")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
	}
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
		if s.RateLimit.TrustForwardedFor {
			fmt.Println("  - Client IP taken from X-Forwarded-For (trusted proxy)")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
	}
}
