package portal

// Messages shown to visitors.
const (
	MessageConnection         = "Connection error. Please refresh the page."
	MessageInvalidCredentials = "Invalid email or password. Please try again."
	MessageUnverified         = "Please verify your email before logging in. Check your inbox."
	MessageLoginSuccess       = "Login successful! Redirecting..."
	MessageVerified           = "Email verified! Logging you in..."
	MessageVerificationExpiry = "Verification link may have expired."
	MessageVerifiedBanner     = "Email verified successfully! You can now log in."
	MessageResetSent          = "Password reset link sent! Check your email."
	MessagePasswordUpdated    = "Password updated successfully!"
	MessageProfileSaved       = "Profile completed!"
	MessageDemoBooked         = "Demo Booked!"
	MessageConfirmationFailed = "Your demo is booked, but we could not send the confirmation email."
)

// RedirectDelayMs is how long a success message stays up before the page navigates.
const RedirectDelayMs = 1000
