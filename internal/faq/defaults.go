package faq

var defaultEntries = []Entry{
	{Key: "what is adigy", Answer: "Adigy is an Amazon advertising automation platform. It manages your Sponsored Products campaigns, bids and keywords around the clock to keep you at your target ACOS."},
	{Key: "cancel subscription", Answer: "You can cancel anytime from Settings > Billing > Cancel Subscription. Your plan stays active until the end of the current billing period."},
	{Key: "free trial", Answer: "Every new account starts with a 14-day free trial. No credit card is required to start."},
	{Key: "pricing plans", Answer: "Plans start at $99/month for up to $2,000 of monthly ad spend. Larger accounts are billed as a percentage of ad spend; see adigy.com/pricing for details."},
	{Key: "setup account", Answer: "Setup takes about ten minutes: create your Adigy account, connect Seller Central or Vendor Central, choose the products to advertise and set a target ACOS."},
	{Key: "target acos", Answer: "ACOS (Advertising Cost of Sale) is ad spend divided by ad-attributed sales. Adigy adjusts bids so each product stays at the target ACOS you set."},
	{Key: "connect amazon account", Answer: "Open Settings > Integrations, click Connect Amazon and sign in with the Seller Central account that owns your advertising profile."},
	{Key: "refund policy", Answer: "We refund the latest monthly charge if you cancel within 7 days of being billed. Email support@adigy.com from your account address to request it."},
	{Key: "reset password", Answer: "Use the Forgot password link on the login page. The reset link we email you is valid for one hour."},
	{Key: "contact support", Answer: "You can reach the Adigy support team at support@adigy.com. We reply within one business day."},
}

var defaultTable = mustTable(defaultEntries)

// Default returns the compiled-in FAQ table.
func Default() *Table {
	return defaultTable
}

func mustTable(entries []Entry) *Table {
	t, err := NewTable(entries)
	if err != nil {
		panic(err)
	}
	return t
}
