package faq

// Seed provides the IT-support FAQs the backend double starts with.
func Seed() []FAQ {
	return []FAQ{
		{
			ID:       "reset-password",
			Question: "How do I reset my password?",
			Answer:   "Open the self-service portal, choose \"Forgot password\" and follow the link sent to your work email.",
		},
		{
			ID:       "vpn-access",
			Question: "How do I connect to the VPN?",
			Answer:   "Install the company VPN client, sign in with your network account and pick the nearest gateway.",
		},
		{
			ID:       "printer-setup",
			Question: "How do I add a network printer?",
			Answer:   "Go to Settings > Printers, choose \"Add printer\" and select the printer name shown on its label.",
		},
		{
			ID:       "email-quota",
			Question: "What should I do when my mailbox is full?",
			Answer:   "Archive older messages to the online archive or empty Deleted Items; the quota refreshes within an hour.",
		},
		{
			ID:       "software-request",
			Question: "How do I request new software?",
			Answer:   "Submit a software request ticket in the service desk with the product name and business reason.",
		},
	}
}
