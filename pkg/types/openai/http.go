package openai

import (
	"log/slog"
	"net/http"

	"speechgate.dev/pkg/metadata"
	"speechgate.dev/pkg/object"
	"speechgate.dev/pkg/utils"
)

func ResponseHandler() func(resp any, err error, writer http.ResponseWriter, request *http.Request) {
	return func(resp any, err error, writer http.ResponseWriter, request *http.Request) {
		rMeta := metadata.RequestMetadataFromCtx(request.Context())
		if rMeta.RequestID != "" {
			writer.Header().Set(metadata.HeaderRequestID, rMeta.RequestID)
		}

		if err == nil {
			if resp == nil {
				return
			}

			if binaryResp, ok := resp.(interface {
				WriteTo(writer http.ResponseWriter) error
			}); ok {
				if statuser, ok := resp.(interface{ GetStatus() int }); ok {
					rMeta.StatusCode = statuser.GetStatus()
				} else {
					rMeta.StatusCode = http.StatusOK
				}

				if err := binaryResp.WriteTo(writer); err != nil {
					slog.Error("failed to write binary response", "error", err)
				}

				return
			}

			rMeta.StatusCode = http.StatusOK
			utils.WriteJSONForHTTP(http.StatusOK, resp, writer)

			return
		}

		speechErr := object.SpeechErrorOrInternalError(err)

		switch {
		case speechErr.IsFromUpstream():
			slog.Error("upstream returned an error",
				"kind", speechErr.GetKind(),
				"status_code", speechErr.StatusCode,
				"message", speechErr.Detail,
				"cause", speechErr.Cause,
			)
		case speechErr.GetStatus() >= http.StatusInternalServerError:
			slog.Error("failed to handle request", "error", speechErr, "cause", speechErr.Cause)
		default:
			slog.Debug("rejected request", "kind", speechErr.GetKind(), "error", speechErr)
		}

		rMeta.StatusCode = speechErr.GetStatus()
		rMeta.ErrorKind = string(speechErr.GetKind())
		rMeta.ErrorMessage = speechErr.Error()

		utils.WriteJSONForHTTP(speechErr.GetStatus(), speechErr, writer)
	}
}
