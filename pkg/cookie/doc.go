// Package cookie reads and writes the admin's cookies.
//
// A Manager carries the shared attributes (path, domain, Secure, SameSite)
// and, when built with a secret, can sign or seal values:
//
//	m, err := cookie.New(cookie.WithSecret(os.Getenv("COOKIE_SECRET")), cookie.WithPath("/admin"))
//	if err != nil {
//		return err
//	}
//	err = m.SetEncrypted(w, "_flash", payload, 0)
//
// Sealed values use AES-GCM with a key derived from the secret; signed
// values are "base64(value).base64(hmac)". Both fail closed: a cookie that
// does not verify is reported as ErrBadSig or ErrDecrypt, never returned.
package cookie
