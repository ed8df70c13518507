package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"coursehub-backend/internal/curriculum"
	"coursehub-backend/pkg/tus"
	"coursehub-backend/pkg/utils"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload lesson files and videos",
}

var (
	uploadKind   string
	uploadDraft  string
	uploadModule int
	uploadLesson int
)

var uploadFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Upload a document or image, optionally attaching it to a lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		attachment, err := client.UploadFile(cmd.Context(), uploadKind, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("uploaded %s (%s) to %s\n", attachment.Name, utils.FormatBytes(attachment.Size), attachment.URL)
		if attachment.DurationSeconds > 0 {
			fmt.Printf("duration %s\n", utils.FormatDuration(attachment.DurationSeconds))
		}

		if uploadDraft == "" {
			return nil
		}
		result, err := client.ApplyCurriculum(cmd.Context(), uploadDraft, curriculum.Operation{
			Kind:   curriculum.OpAttachLessonContent,
			Module: uploadModule,
			Lesson: uploadLesson,
			Upload: attachment,
		})
		if err != nil {
			return err
		}
		for _, notice := range result.Notices {
			fmt.Printf("[%s] %s\n", notice.Level, notice.Message)
		}
		return nil
	},
}

var (
	videoTitle     string
	videoResumeURL string
	videoChunkSize int64
)

var uploadVideoCmd = &cobra.Command{
	Use:   "video <path>",
	Short: "Upload a video to the CDN with a resumable upload",
	Long: `Upload a video straight to the video CDN.

The API hands out signed upload credentials, the file is then sent with
the tus protocol. If the transfer breaks, run the command again with
--resume and the printed upload URL to continue where it stopped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		info, err := file.Stat()
		if err != nil {
			return err
		}

		title := videoTitle
		if title == "" {
			title = filepath.Base(path)
		}

		ticket, err := newClient().CreateVideoUpload(cmd.Context(), title)
		if err != nil {
			return err
		}

		uploader := tus.New(
			tus.WithChunkSize(videoChunkSize),
			tus.WithHeaders(map[string]string{
				"AuthorizationSignature": ticket.Signature,
				"AuthorizationExpire":    strconv.FormatInt(ticket.ExpiresAt, 10),
				"VideoId":                ticket.VideoID,
				"LibraryId":              ticket.LibraryID,
			}),
		)

		uploadURL := videoResumeURL
		if uploadURL == "" {
			contentType := mime.TypeByExtension(filepath.Ext(path))
			if contentType == "" {
				contentType = "video/mp4"
			}
			uploadURL, err = uploader.Create(cmd.Context(), ticket.Endpoint, info.Size(), map[string]string{
				"filetype": contentType,
				"title":    title,
			})
			if err != nil {
				return err
			}
		}
		fmt.Printf("upload url: %s\n", uploadURL)

		err = uploader.Upload(cmd.Context(), uploadURL, file, info.Size(), func(sent, total int64) {
			percent := 100.0
			if total > 0 {
				percent = float64(sent) * 100 / float64(total)
			}
			fmt.Printf("\r%5.1f%% (%s of %s)", percent, utils.FormatBytes(sent), utils.FormatBytes(total))
		})
		fmt.Println()
		if err != nil {
			return fmt.Errorf("upload interrupted, resume with --resume %s: %w", uploadURL, err)
		}

		fmt.Printf("video %s uploaded\n", ticket.VideoID)
		if ticket.PlaybackURL != "" {
			fmt.Printf("playback: %s\n", ticket.PlaybackURL)
		}
		return nil
	},
}

func init() {
	uploadFileCmd.Flags().StringVar(&uploadKind, "kind", "document", "image, document or video")
	uploadFileCmd.Flags().StringVar(&uploadDraft, "draft", "", "Draft to attach the file to")
	uploadFileCmd.Flags().IntVar(&uploadModule, "module", 0, "Module position of the lesson")
	uploadFileCmd.Flags().IntVar(&uploadLesson, "lesson", 0, "Lesson position")

	uploadVideoCmd.Flags().StringVar(&videoTitle, "title", "", "Video title (default: file name)")
	uploadVideoCmd.Flags().StringVar(&videoResumeURL, "resume", "", "Upload URL of an interrupted upload")
	uploadVideoCmd.Flags().Int64Var(&videoChunkSize, "chunk-size", tus.DefaultChunkSize, "Bytes per request")

	uploadCmd.AddCommand(uploadFileCmd, uploadVideoCmd)
}
