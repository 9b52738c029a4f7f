package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbaille/cfaprep/internal/blog"
	"github.com/pbaille/cfaprep/internal/curriculum"
	"github.com/pbaille/cfaprep/internal/questions"
	"github.com/pbaille/cfaprep/internal/rag"
)

func ingestCmd() *cobra.Command {
	var doc rag.Document

	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Chunk, embed and index a study document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			in, err := a.ingester()
			if err != nil {
				return err
			}

			base := filepath.Base(args[0])
			if doc.ID == "" {
				doc.ID = strings.TrimSuffix(base, filepath.Ext(base))
			}
			if doc.Source == "" {
				doc.Source = base
			}
			doc.Level = strings.ToUpper(doc.Level)
			doc.Content = string(content)

			res, err := in.Ingest(cmd.Context(), doc)
			if err != nil {
				return err
			}

			fmt.Printf("Indexed %s: %d chunks", res.DocumentID, res.Chunks)
			if res.Replaced > 0 {
				fmt.Printf(" (replaced %d)", res.Replaced)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&doc.ID, "id", "", "document id (default: file name)")
	cmd.Flags().StringVar(&doc.Source, "source", "", "source label shown in retrieved context")
	cmd.Flags().StringVarP(&doc.Level, "level", "l", "", "CFA level: I, II or III")
	cmd.Flags().StringVarP(&doc.Topic, "topic", "t", "", "curriculum topic")
	cmd.Flags().StringVar(&doc.Kind, "kind", rag.KindCurriculum, "chunk kind tag")
	return cmd
}

func categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage blog categories",
	}

	var description string
	add := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := a.store.CreateCategory(cmd.Context(), strings.Join(args, " "), description)
			if err != nil {
				return err
			}
			fmt.Printf("Created category %s (%s)\n", c.Name, c.ID)
			return nil
		},
	}
	add.Flags().StringVarP(&description, "description", "d", "", "category description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			cats, err := a.store.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			if len(cats) == 0 {
				fmt.Println("No categories yet. Use 'cfaprep category add' to create one.")
				return nil
			}
			for _, c := range cats {
				fmt.Printf("%s  %-24s %s\n", c.ID, c.Slug, c.Name)
			}
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func curriculumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curriculum",
		Short: "Manage the curriculum topic map",
	}

	load := &cobra.Command{
		Use:   "load [file.yaml]",
		Short: "Replace the topic map with the contents of a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topics, err := curriculum.Load(args[0])
			if err != nil {
				return err
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.ReplaceCurriculum(cmd.Context(), topics); err != nil {
				return err
			}
			fmt.Printf("Loaded %d topics\n", len(topics))
			return nil
		},
	}

	var level string
	list := &cobra.Command{
		Use:   "list",
		Short: "List curriculum topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			topics, err := a.store.ListCurriculum(cmd.Context(), strings.ToUpper(level))
			if err != nil {
				return err
			}
			if len(topics) == 0 {
				fmt.Println("No curriculum loaded.")
				return nil
			}
			for _, t := range topics {
				fmt.Printf("%-4s %-50s %g-%g%%\n", t.Level, t.Name, t.WeightMin, t.WeightMax)
			}
			return nil
		},
	}
	list.Flags().StringVarP(&level, "level", "l", "", "only this level")

	cmd.AddCommand(load, list)
	return cmd
}

func questionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Generate practice questions",
	}

	var req questions.Request
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of questions into the bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.retriever()
			if err != nil {
				return err
			}
			gen, err := a.questionGenerator(r)
			if err != nil {
				return err
			}

			fmt.Print("Generating... ")
			res, err := gen.Generate(cmd.Context(), req)
			if err != nil {
				fmt.Println("failed")
				return err
			}
			fmt.Printf("done (job %s)\n", res.JobID)

			for i, q := range res.Questions {
				fmt.Printf("\n%d. %s\n   A) %s\n   B) %s\n   C) %s\n   Answer: %s\n",
					i+1, q.Stem, q.OptionA, q.OptionB, q.OptionC, q.CorrectAnswer)
			}
			if res.Dropped > 0 {
				fmt.Printf("\n(%d malformed questions dropped)\n", res.Dropped)
			}
			return nil
		},
	}
	generate.Flags().StringVarP(&req.Level, "level", "l", "I", "CFA level: I, II or III")
	generate.Flags().StringVarP(&req.Topic, "topic", "t", "", "curriculum topic")
	generate.Flags().StringVar(&req.Subtopic, "subtopic", "", "subtopic")
	generate.Flags().StringVarP(&req.Difficulty, "difficulty", "d", "medium", "easy, medium or hard")
	generate.Flags().IntVarP(&req.Count, "count", "n", questions.DefaultCount, "number of questions")
	generate.Flags().StringVar(&req.LOS, "los", "", "learning outcome statement to target")
	generate.MarkFlagRequired("topic")

	cmd.AddCommand(generate)
	return cmd
}

func blogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blog",
		Short: "Run the blog content pipeline",
	}

	var req blog.Request
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Draft a blog post",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.retriever()
			if err != nil {
				return err
			}
			gen, err := a.blogGenerator(r)
			if err != nil {
				return err
			}

			fmt.Print("Drafting... ")
			res, err := gen.Generate(cmd.Context(), req)
			if err != nil {
				fmt.Println("failed")
				return err
			}
			fmt.Println("done")
			fmt.Printf("Post:    %s\nSlug:    %s\nWords:   %d (%d min read)\nJob:     %s\n",
				res.Post.ID, res.Post.Slug, res.Post.WordCount, res.Post.ReadingTimeMinutes, res.JobID)
			return nil
		},
	}
	generate.Flags().StringVar(&req.CategoryID, "category", "", "category id")
	generate.Flags().StringVarP(&req.Topic, "topic", "t", "", "article topic")
	generate.Flags().StringSliceVarP(&req.Keywords, "keywords", "k", nil, "target keywords")
	generate.Flags().IntVarP(&req.WordCount, "words", "w", blog.DefaultWordCount, "target word count")
	generate.Flags().BoolVar(&req.IncludeFAQ, "faq", false, "append an FAQ section")
	generate.Flags().BoolVar(&req.EnhanceContent, "enhance", false, "run a second editing pass")
	generate.Flags().StringVar(&req.ReferenceURL, "url", "", "reference page to draw on")
	generate.Flags().StringVarP(&req.Level, "level", "l", "", "restrict context to one CFA level")
	generate.MarkFlagRequired("category")
	generate.MarkFlagRequired("topic")

	publish := &cobra.Command{
		Use:   "publish [post-id]",
		Short: "Publish a draft post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.store.PublishPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Published /blog/%s\n", p.Slug)
			return nil
		},
	}

	cmd.AddCommand(generate, publish)
	return cmd
}

