package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cherbst/devblog"
	"github.com/cherbst/devblog/deploy"
)

type deployOptions struct {
	out      string
	bucket   string
	prefix   string
	region   string
	endpoint string
}

func newDeployCmd(opts *globalOptions) *cobra.Command {
	var d deployOptions
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Export the site and upload it to S3",
		Long: `Export the site (see "devblog export") and put every file into an
S3 bucket with its content type and cache policy.

The bucket and key prefix default to S3_BUCKET and S3_PREFIX from the
stage environment. Credentials come from S3_ACCESS_KEY_ID and
S3_SECRET_ACCESS_KEY when both are set, otherwise from the standard AWS
chain. S3_ENDPOINT targets an S3-compatible service instead of AWS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.Prepare(ctx); err != nil {
				return err
			}

			bucket := firstNonEmpty(d.bucket, app.Runtime.S3Bucket)
			if bucket == "" {
				return fmt.Errorf("no bucket: set --bucket or S3_BUCKET")
			}
			out := d.out
			if out == "" {
				tmp, err := os.MkdirTemp("", "devblog-deploy-")
				if err != nil {
					return err
				}
				defer os.RemoveAll(tmp)
				out = tmp
			}
			res, err := app.Export(ctx, devblog.ExportOptions{Dir: out, Clean: true})
			if err != nil {
				return err
			}

			client, err := deploy.NewS3Client(ctx, deploy.S3Options{
				Region:          firstNonEmpty(d.region, os.Getenv("AWS_REGION")),
				Endpoint:        firstNonEmpty(d.endpoint, app.Runtime.S3Endpoint),
				AccessKeyID:     app.Runtime.S3AccessKeyID,
				SecretAccessKey: app.Runtime.S3SecretAccessKey,
			})
			if err != nil {
				return err
			}
			uploader := &deploy.S3Uploader{
				Client:       client,
				Bucket:       bucket,
				Prefix:       firstNonEmpty(d.prefix, app.Runtime.S3Prefix),
				CacheControl: devblog.CacheControl,
				Logger:       app.Logger,
			}
			up, err := uploader.Upload(ctx, res.OutputDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d objects (%d bytes) to s3://%s/%s\n",
				up.Objects, up.Bytes, bucket, uploader.Prefix)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&d.out, "out", "o", "", "keep the export in this directory (default a temporary one)")
	f.StringVar(&d.bucket, "bucket", "", "S3 bucket (default $S3_BUCKET)")
	f.StringVar(&d.prefix, "prefix", "", "key prefix (default $S3_PREFIX)")
	f.StringVar(&d.region, "region", "", "AWS region (default $AWS_REGION or us-east-1)")
	f.StringVar(&d.endpoint, "endpoint", "", "S3-compatible endpoint URL (default $S3_ENDPOINT)")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
