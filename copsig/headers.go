package copsig

// Header names of the COP signing protocol.
const (
	HeaderDate          = "X-Coscon-Date"
	HeaderDigest        = "X-Coscon-Digest"
	HeaderContentMD5    = "X-Coscon-Content-Md5"
	HeaderAuthorization = "X-Coscon-Authorization"
	HeaderHmac          = "X-Coscon-Hmac"
	HeaderRequestID     = "X-Coscon-Request-ID"
	HeaderClientSDK     = "X-Cop-Client-SDK"

	HeaderUserAgent     = "User-Agent"
	HeaderAccept        = "Accept"
	HeaderAcceptCharset = "Accept-Charset"
	HeaderContentType   = "Content-Type"
)

// RequestLineComponent names the request line in the signed header list.
const RequestLineComponent = "request-line"

// SignedHeaders is the headers parameter of every COP authorization value.
const SignedHeaders = HeaderDate + " " + HeaderDigest + " " + HeaderContentMD5 + " " + RequestLineComponent

// Media types used by COP calls.
const (
	MIMEApplicationJSON = "application/json"
	CharsetUTF8         = "utf-8"
	ContentTypeJSON     = MIMEApplicationJSON + "; charset=" + CharsetUTF8
)

// SDKVersion is the version token added to User-Agent and X-Cop-Client-SDK.
const SDKVersion = "COP_SDK_Go/1.0.0"

// protocolVersion is the protocol written into the signed request line.
const protocolVersion = "HTTP/1.1"
