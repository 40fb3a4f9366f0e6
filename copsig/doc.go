// Package copsig implements the COP gateway HMAC request signing protocol.
//
// A signed request carries five headers computed over a canonical block:
//
//	X-Coscon-Date: Mon, 02 Jan 2006 15:04:05 GMT
//	X-Coscon-Digest: SHA-256=<base64 sha256 of the body>
//	X-Coscon-Content-Md5: <hex md5 of a random uuid>
//	GET /service/info/tracking/123?numberType=bl HTTP/1.1
//
// The block is signed with HMAC (SHA-1, SHA-256, SHA-384 or SHA-512) keyed
// by the namespace secret and sent as
//
//	X-Coscon-Authorization: hmac username="<api key>",algorithm="hmac-sha1",
//	    headers="X-Coscon-Date X-Coscon-Digest X-Coscon-Content-Md5 request-line",
//	    signature="<base64>"
//
// together with X-Coscon-Hmac, which echoes the nonce.
//
// # Signing Requests
//
// BuildHeaders is the pure signing step. Signer resolves credentials by
// request URL, signs a clone of the request and normalizes User-Agent,
// Accept and Accept-Charset:
//
//	signer, err := copsig.NewSigner(copsig.HmacSHA256)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	signed, err := signer.Sign(provider, req)
//
// Requests whose URL is outside every namespace are not meant to be signed;
// check with AcceptRequest first.
//
// # Verifying Requests
//
// Verify and Middleware implement the gateway side. They are used to
// emulate the gateway locally and in tests:
//
//	mw, err := copsig.Middleware(copsig.MiddlewareConfig{
//	    Verify: copsig.VerifyConfig{
//	        Resolver: copsig.StaticSecrets(map[string]string{"key": "secret"}),
//	        MaxSkew:  5 * time.Minute,
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	handler = mw(handler)
package copsig
